// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned when no decoder handles the file extension.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Clip is a fully decoded mono sample stream. Only the first channel of the
// source is kept; samples are normalised to [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int // channel count of the source file
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Decode opens path and decodes it by file extension.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	var clip *Clip
	switch ext {
	case ".wav", ".wave":
		clip, err = decodeWAV(f)
	case ".mp3":
		clip, err = decodeMP3(f)
	case ".flac":
		clip, err = decodeFLAC(f)
	case ".ogg", ".oga":
		clip, err = decodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("decoding %s: invalid sample rate %d", filepath.Base(path), clip.SampleRate)
	}
	return clip, nil
}

// --- WAV ---

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV channel count %d", channels)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	return &Clip{
		Samples:    firstChannelInt(buf, channels, bitDepth),
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
	}, nil
}

// firstChannelInt extracts channel 0 of an interleaved integer buffer and
// scales it by the source bit depth.
func firstChannelInt(buf *goaudio.IntBuffer, channels, bitDepth int) []float32 {
	frames := len(buf.Data) / channels
	out := make([]float32, frames)

	// 8-bit WAV is unsigned.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1 / float32(int64(1)<<(bitDepth-1))
	for i := range frames {
		out[i] = float32(buf.Data[i*channels]-offset) * scale
	}
	return out
}

// --- MP3 ---

func decodeMP3(r io.Reader) (*Clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 frames: %w", err)
	}

	const frameSize = 4
	out := make([]float32, len(raw)/frameSize)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(raw[i*frameSize:]))
		out[i] = float32(s) / 32768
	}
	return &Clip{Samples: out, SampleRate: dec.SampleRate(), Channels: 2}, nil
}

// --- FLAC ---

func decodeFLAC(r io.Reader) (*Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	scale := 1 / float32(int64(1)<<(info.BitsPerSample-1))
	out := make([]float32, 0, info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing FLAC frame: %w", err)
		}
		for _, s := range frame.Subframes[0].Samples {
			out = append(out, float32(s)*scale)
		}
	}
	return &Clip{Samples: out, SampleRate: int(info.SampleRate), Channels: int(info.NChannels)}, nil
}

// --- OGG Vorbis ---

func decodeOGG(r io.Reader) (*Clip, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}

	channels := reader.Channels()
	out := make([]float32, 0, max(reader.Length(), 0))
	chunk := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(chunk)
		for i := 0; i+channels <= n; i += channels {
			out = append(out, chunk[i])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading OGG samples: %w", err)
		}
	}
	return &Clip{Samples: out, SampleRate: reader.SampleRate(), Channels: channels}, nil
}

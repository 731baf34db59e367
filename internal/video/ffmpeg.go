// SPDX-License-Identifier: MIT
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	applog "barvis/internal/log"
	"barvis/internal/visual"
)

// EncoderOptions describes the silent video an Encoder produces.
type EncoderOptions struct {
	FFmpegPath string // ffmpeg binary, looked up on PATH when bare
	Width      int
	Height     int
	FPS        int
	Codec      string // ffmpeg video codec, e.g. "mpeg4"
	OutPath    string
}

// EncoderArgs returns the ffmpeg arguments reading rgb24 frames from stdin.
func EncoderArgs(o EncoderOptions) []string {
	return []string{
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-r", strconv.Itoa(o.FPS),
		"-i", "pipe:0",
		"-an",
		"-c:v", o.Codec,
		"-pix_fmt", "yuv420p",
		o.OutPath,
	}
}

// Encoder pipes raw frames into an ffmpeg subprocess at a fixed frame rate.
type Encoder struct {
	opts   EncoderOptions
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	buf    []byte // Reusable rgb24 packing buffer.
	frames int
	closed bool
}

// NewEncoder starts ffmpeg. The process is killed if ctx is cancelled.
func NewEncoder(ctx context.Context, o EncoderOptions) (*Encoder, error) {
	if o.Width <= 0 || o.Height <= 0 || o.FPS <= 0 {
		return nil, fmt.Errorf("encoder: invalid output %dx%d@%d", o.Width, o.Height, o.FPS)
	}
	ffmpeg, err := exec.LookPath(o.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	e := &Encoder{opts: o, buf: make([]byte, o.Width*o.Height*3)}
	e.cmd = exec.CommandContext(ctx, ffmpeg, EncoderArgs(o)...)
	e.cmd.Stderr = &e.stderr

	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg encoder: %w", err)
	}

	applog.Infof("Encoder: Writing %dx%d@%dfps %s to %s", o.Width, o.Height, o.FPS, o.Codec, o.OutPath)
	return e, nil
}

// WriteFrame sends one frame. Frames must match the configured size.
func (e *Encoder) WriteFrame(f *visual.Frame) error {
	if e.closed {
		return errors.New("encoder: closed")
	}
	if f.Width() != e.opts.Width || f.Height() != e.opts.Height {
		return fmt.Errorf("encoder: frame is %dx%d, want %dx%d", f.Width(), f.Height(), e.opts.Width, e.opts.Height)
	}
	e.buf = f.RGB24(e.buf)
	if _, err := e.stdin.Write(e.buf); err != nil {
		return fmt.Errorf("encoder: write frame %d: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Frames returns the number of frames written.
func (e *Encoder) Frames() int { return e.frames }

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	closeErr := e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoder: %w%s", err, e.stderrSuffix())
	}
	if closeErr != nil {
		return fmt.Errorf("ffmpeg encoder stdin: %w", closeErr)
	}
	applog.Infof("Encoder: Finished %s (%d frames)", e.opts.OutPath, e.frames)
	return nil
}

// stderrSuffix must only be called after Wait.
func (e *Encoder) stderrSuffix() string {
	msg := strings.TrimSpace(e.stderr.String())
	if msg == "" {
		return ""
	}
	return ": " + msg
}

var _ FrameSink = (*Encoder)(nil)

// MuxArgs returns the ffmpeg arguments copying the video stream of videoPath
// and the audio stream of audioPath into outPath.
func MuxArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		"-map", "0:v:0",
		"-y",
		"-map", "1:a:0",
		outPath,
	}
}

// Mux runs ffmpeg to combine the silent video with the source audio.
func Mux(ctx context.Context, ffmpegPath, videoPath, audioPath, outPath string) error {
	ffmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpeg, MuxArgs(videoPath, audioPath, outPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mux: %w: %s", err, strings.TrimSpace(string(out)))
	}
	applog.Infof("Mux: Wrote %s", outPath)
	return nil
}

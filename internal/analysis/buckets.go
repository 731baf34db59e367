// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidBuckets is returned when a bucket set cannot be built from the
// requested count and frequency range.
var ErrInvalidBuckets = errors.New("analysis: invalid bucket configuration")

// FrequencyContainer accumulates spectrum points into a fixed set of scalar
// energies. It is cleared and refilled once per analysis pass.
type FrequencyContainer interface {
	Update(freqHz, magnitude float32) // Update adds magnitude to the bucket owning freqHz, if any.
	Clear()                           // Clear resets every bucket to zero.
	Values() []float32                // Values returns a read-only view of the current buckets.
	Len() int                         // Len returns the fixed bucket count.
}

// LogBuckets spreads frequencies over bucketCount logarithmically spaced
// bins covering [0, rangeHz). A frequency f lands in
//
//	floor(log2(f/rangeHz + 1) * bucketCount / log2(rangeHz))
//
// and anything mapping outside [0, bucketCount) is dropped.
type LogBuckets struct {
	values     []float32
	rangeHz    float32
	logRange   float32 // log2(rangeHz)
	bucketSize float32 // logRange / bucketCount, width of one bucket in octaves
	scale      float32 // bucketCount / logRange
}

// NewLogBuckets returns an empty set of count buckets over rangeHz. The range
// must exceed 1 Hz so that log2(rangeHz) is positive.
func NewLogBuckets(count int, rangeHz float32) (*LogBuckets, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: bucket count %d", ErrInvalidBuckets, count)
	}
	if !(rangeHz > 1) || math.IsInf(float64(rangeHz), 1) {
		return nil, fmt.Errorf("%w: frequency range %v Hz", ErrInvalidBuckets, rangeHz)
	}

	logRange := float32(math.Log2(float64(rangeHz)))
	return &LogBuckets{
		values:     make([]float32, count),
		rangeHz:    rangeHz,
		logRange:   logRange,
		bucketSize: logRange / float32(count),
		scale:      float32(count) / logRange,
	}, nil
}

// BucketIndex reports the bucket freqHz maps to and whether that bucket is
// in range. DC maps to bucket 0; negative, NaN and >= rangeHz frequencies
// are out of range.
func (b *LogBuckets) BucketIndex(freqHz float32) (int, bool) {
	if !(freqHz >= 0) || freqHz >= b.rangeHz {
		return 0, false
	}
	pos := float32(math.Log2(float64(freqHz/b.rangeHz+1))) * b.scale
	idx := int(math.Floor(float64(pos)))
	if idx < 0 || idx >= len(b.values) {
		return 0, false
	}
	return idx, true
}

// Update accumulates magnitude into the bucket owning freqHz. Out of range
// frequencies leave every bucket untouched.
func (b *LogBuckets) Update(freqHz, magnitude float32) {
	if idx, ok := b.BucketIndex(freqHz); ok {
		b.values[idx] += magnitude
	}
}

// Clear resets all buckets to 0.
func (b *LogBuckets) Clear() {
	clear(b.values)
}

// Values returns the live bucket slice. Callers must not modify it and must
// copy it if they need it past the next Update or Clear.
func (b *LogBuckets) Values() []float32 { return b.values }

// Snapshot returns a copy of the current buckets.
func (b *LogBuckets) Snapshot() []float32 {
	return append([]float32(nil), b.values...)
}

func (b *LogBuckets) Len() int { return len(b.values) }

// RangeHz returns the upper (exclusive) frequency bound.
func (b *LogBuckets) RangeHz() float32 { return b.rangeHz }

// BucketSize returns the width of one bucket in octaves of the range.
func (b *LogBuckets) BucketSize() float32 { return b.bucketSize }

// String renders the buckets as "[v0 v1 ...]" with two decimals.
func (b *LogBuckets) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b.values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.2f", v)
	}
	sb.WriteByte(']')
	return sb.String()
}

var _ FrequencyContainer = (*LogBuckets)(nil)

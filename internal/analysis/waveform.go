// SPDX-License-Identifier: MIT
package analysis

import "math"

// Downsample reduces samples to buckets values, each the mean absolute
// amplitude of its slice of the input. The last bucket absorbs the remainder.
// It returns an empty slice when buckets <= 0 or samples is empty.
func Downsample(samples []float32, buckets int) []float64 {
	if buckets <= 0 || len(samples) == 0 {
		return []float64{}
	}
	out := make([]float64, buckets)
	blockSize := len(samples) / buckets
	if blockSize == 0 {
		// More buckets than samples: one sample per bucket, the rest stay 0.
		for i, s := range samples {
			out[i] = math.Abs(float64(s))
		}
		return out
	}

	for i := range buckets {
		start := i * blockSize
		end := start + blockSize
		if i == buckets-1 {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += math.Abs(float64(s))
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

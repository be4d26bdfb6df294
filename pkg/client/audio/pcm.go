package audio

import "encoding/binary"

// DecodePCM16 converts little-endian bytes to samples.
func DecodePCM16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// EncodePCM16 converts samples to little-endian bytes.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/channels)
	for i := range out {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// Downsample converts mono samples from one rate to a lower one by
// averaging each output sample's input window. Upsampling is not needed for
// capture and returns the input unchanged.
func Downsample(samples []int16, from, to int) []int16 {
	if to <= 0 || from <= to {
		return samples
	}
	n := len(samples) * to / from
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		start := i * from / to
		end := (i + 1) * from / to
		if end > len(samples) {
			end = len(samples)
		}
		var sum int
		for _, s := range samples[start:end] {
			sum += int(s)
		}
		if end > start {
			out[i] = int16(sum / (end - start))
		}
	}
	return out
}

// Convert brings raw device PCM to mono PCM16 at the target rate.
func Convert(raw []byte, in Format, targetRate int) []byte {
	if in.Channels <= 1 && (targetRate <= 0 || in.SampleRate == targetRate) {
		return raw
	}
	samples := Downmix(DecodePCM16(raw), in.Channels)
	return EncodePCM16(Downsample(samples, in.SampleRate, targetRate))
}

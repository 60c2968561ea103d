package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the RIFF format tag for integer PCM.
const wavFormatPCM = 1

// MaxSampleRate is the highest header sample rate DecodeWAV accepts.
// Analysis buffers scale with the rate, so larger values are refused.
const MaxSampleRate = 384000

// DecodeWAV reads an integer PCM WAV stream and returns it as a mono
// waveform. Multi-channel input is collapsed by averaging channels.
func DecodeWAV(r io.ReadSeeker) (Waveform, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Waveform{}, fmt.Errorf("%w: not a WAV file", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != wavFormatPCM {
		return Waveform{}, fmt.Errorf("%w: WAV format tag %d, only PCM is supported", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: missing channel count or sample rate", ErrUnsupportedFormat)
	}
	if buf.Format.SampleRate > MaxSampleRate {
		return Waveform{}, fmt.Errorf("%w: sample rate %d Hz above %d Hz",
			ErrUnsupportedFormat, buf.Format.SampleRate, MaxSampleRate)
	}
	if len(buf.Data) == 0 {
		return Waveform{}, ErrEmpty
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	samples, err := intToFloat(buf.Data, bitDepth)
	if err != nil {
		return Waveform{}, err
	}

	return Waveform{
		Samples:    Mono(samples, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// intToFloat scales integer PCM samples to [-1, 1]. 8-bit WAV is unsigned.
func intToFloat(data []int, bitDepth int) ([]float32, error) {
	out := make([]float32, len(data))
	switch bitDepth {
	case 8:
		for i, v := range data {
			out[i] = float32(v-128) / 128.0
		}
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range data {
			out[i] = float32(float64(v) / scale)
		}
	default:
		return nil, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	return out, nil
}

// EncodeWAV writes w as a 16-bit mono PCM WAV stream.
func EncodeWAV(out io.WriteSeeker, w Waveform) error {
	enc := wav.NewEncoder(out, w.SampleRate, 16, 1, wavFormatPCM)
	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		v := float64(s) * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize wav: %w", err)
	}
	return nil
}

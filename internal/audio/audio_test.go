package audio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestFromPCM16_Empty(t *testing.T) {
	if samples := FromPCM16(nil); samples != nil {
		t.Fatalf("expected nil, got %v", samples)
	}
	if samples := FromPCM16([]byte{0x01}); samples != nil {
		t.Fatalf("expected nil for single byte, got %v", samples)
	}
}

func TestFromPCM16_Range(t *testing.T) {
	// 0x7FFF, 0x8000, 0x0100 little-endian.
	samples := FromPCM16([]byte{0xFF, 0x7F, 0x00, 0x80, 0x00, 0x01})
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if want := float32(32767) / 32768.0; samples[0] != want {
		t.Errorf("sample[0] = %v, want %v", samples[0], want)
	}
	if samples[1] != -1 {
		t.Errorf("sample[1] = %v, want -1", samples[1])
	}
	if want := float32(256) / 32768.0; samples[2] != want {
		t.Errorf("sample[2] = %v, want %v", samples[2], want)
	}
}

func TestMonoAveragesChannels(t *testing.T) {
	got := Mono([]float32{1, 0, 0.5, 0.5, -1, 1, 0.25}, 2)
	want := []float32{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonoSingleChannelPassthrough(t *testing.T) {
	in := []float32{0.1, 0.2}
	if got := Mono(in, 1); &got[0] != &in[0] {
		t.Fatal("expected mono input to be returned as-is")
	}
}

func TestPadOrTrim(t *testing.T) {
	in := []float32{1, 2, 3}
	if got := PadOrTrim(in, 2); len(got) != 2 || got[1] != 2 {
		t.Errorf("trim = %v", got)
	}
	got := PadOrTrim(in, 5)
	if len(got) != 5 || got[2] != 3 || got[4] != 0 {
		t.Errorf("pad = %v", got)
	}
	if got := PadTo(in, 2); len(got) != 3 {
		t.Errorf("PadTo shortened input: %v", got)
	}
}

func TestWaveformDuration(t *testing.T) {
	w := Waveform{Samples: make([]float32, 8000), SampleRate: 16000}
	if got := w.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", got)
	}
	if got := (Waveform{Samples: make([]float32, 10)}).Duration(); got != 0 {
		t.Errorf("Duration without rate = %v, want 0", got)
	}
}

func TestEncodeDecodeWAV(t *testing.T) {
	in := Waveform{SampleRate: 16000, Samples: make([]float32, 1600)}
	for i := range in.Samples {
		in.Samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, in); err != nil {
		t.Fatal(err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", out.SampleRate)
	}
	if out.Len() != in.Len() {
		t.Fatalf("Len = %d, want %d", out.Len(), in.Len())
	}
	for i := range in.Samples {
		if d := math.Abs(float64(out.Samples[i] - in.Samples[i])); d > 1e-4 {
			t.Fatalf("sample %d = %v, want %v", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestDecodeWAVStereoCollapsed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, 0, 16384, 16384, -16384, 16384},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	want := []float32{0.25, 0.5, 0}
	if w.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", w.Len(), len(want))
	}
	for i := range want {
		if w.Samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, w.Samples[i], want[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a riff header")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeWAVRejectsExcessiveRate(t *testing.T) {
	for _, rate := range []int{MaxSampleRate + 1, 20_000_000} {
		path := filepath.Join(t.TempDir(), "fast.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := EncodeWAV(f, Waveform{SampleRate: rate, Samples: make([]float32, 100)}); err != nil {
			t.Fatal(err)
		}
		f.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := DecodeWAV(bytes.NewReader(data)); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("rate %d: err = %v, want ErrUnsupportedFormat", rate, err)
		}
	}
}

func TestDecodeWAVAcceptsMaxRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "max.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, Waveform{SampleRate: MaxSampleRate, Samples: make([]float32, 100)}); err != nil {
		t.Fatal(err)
	}
	f.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if w.SampleRate != MaxSampleRate {
		t.Fatalf("SampleRate = %d, want %d", w.SampleRate, MaxSampleRate)
	}
}

func TestResampleLength(t *testing.T) {
	for _, rate := range []int{8000, 22050, 44100, 48000} {
		in := Waveform{SampleRate: rate, Samples: make([]float32, rate)}
		for i := range in.Samples {
			in.Samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		}
		out, err := Resample(in, 16000)
		if err != nil {
			t.Fatalf("rate %d: %v", rate, err)
		}
		if out.SampleRate != 16000 {
			t.Fatalf("rate %d: SampleRate = %d", rate, out.SampleRate)
		}
		// 1 s in must come out as 1 s, within a few samples.
		if d := out.Len() - 16000; d < -32 || d > 0 {
			t.Fatalf("rate %d: Len = %d, want about 16000", rate, out.Len())
		}

		// The last 10 ms of a continuous tone stay loud.
		tail := out.Samples[out.Len()-160:]
		var sum float64
		for _, s := range tail {
			sum += float64(s) * float64(s)
		}
		if rms := math.Sqrt(sum / float64(len(tail))); rms < 0.2 {
			t.Errorf("rate %d: tail RMS = %.3f, want the tone to reach the end", rate, rms)
		}
	}
}

func TestResampleSameRate(t *testing.T) {
	w := Waveform{Samples: []float32{0.1, 0.2}, SampleRate: 16000}
	out, err := Resample(w, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 || out.SampleRate != 16000 {
		t.Fatalf("unexpected passthrough result: %+v", out)
	}
}

func TestResampleInvalidRate(t *testing.T) {
	if _, err := Resample(Waveform{Samples: []float32{0}, SampleRate: 8000}, 0); err == nil {
		t.Fatal("expected error for zero target rate")
	}
	if _, err := Resample(Waveform{Samples: []float32{0}}, 16000); err == nil {
		t.Fatal("expected error for missing source rate")
	}
}

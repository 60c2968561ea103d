package features

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFFTMatchesDFT(t *testing.T) {
	x := []float64{0.5, -1, 2, 0.25, 0, 3, -0.75, 1}
	re := append([]float64(nil), x...)
	im := make([]float64, len(x))
	fft(re, im)

	n := len(x)
	for k := 0; k < n; k++ {
		var want complex128
		for i, v := range x {
			want += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*float64(k*i)/float64(n)))
		}
		if math.Abs(real(want)-re[k]) > 1e-9 || math.Abs(imag(want)-im[k]) > 1e-9 {
			t.Fatalf("bin %d = (%v, %v), want %v", k, re[k], im[k], want)
		}
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 999, 1000, 4000, 11025} {
		if got := melToHz(hzToMel(hz)); math.Abs(got-hz) > 1e-6 {
			t.Errorf("melToHz(hzToMel(%v)) = %v", hz, got)
		}
	}
	if got := hzToMel(1000); math.Abs(got-15) > 1e-9 {
		t.Errorf("hzToMel(1000) = %v, want 15", got)
	}
}

func TestMelFilterBankCoversSpectrum(t *testing.T) {
	bank := melFilterBank(40, 512, 16000)
	if len(bank) != 40 {
		t.Fatalf("filters = %d, want 40", len(bank))
	}
	for m, filter := range bank {
		if len(filter) != 257 {
			t.Fatalf("filter %d has %d bins, want 257", m, len(filter))
		}
		var sum float64
		for _, w := range filter {
			if w < 0 {
				t.Fatalf("filter %d has negative weight", m)
			}
			sum += w
		}
		if sum == 0 {
			t.Errorf("filter %d is empty", m)
		}
	}
}

func TestDCTOrthoOfConstant(t *testing.T) {
	x := []float64{2, 2, 2, 2}
	got := dctOrtho(x, 3)
	if math.Abs(got[0]-4) > 1e-9 {
		t.Errorf("c0 = %v, want 4", got[0])
	}
	for k := 1; k < 3; k++ {
		if math.Abs(got[k]) > 1e-9 {
			t.Errorf("c%d = %v, want 0", k, got[k])
		}
	}
}

func TestDeltaOfLinearRamp(t *testing.T) {
	seq := make([][]float64, 20)
	for i := range seq {
		seq[i] = []float64{2 * float64(i), -float64(i)}
	}
	d := delta(seq)
	for i, row := range d {
		if math.Abs(row[0]-2) > 1e-9 || math.Abs(row[1]+1) > 1e-9 {
			t.Fatalf("delta[%d] = %v, want [2 -1]", i, row)
		}
	}
}

func TestDeltaShortSequences(t *testing.T) {
	short := [][]float64{{0}, {1}, {2}, {3}, {4}}
	for i, row := range delta(short) {
		if math.Abs(row[0]-1) > 1e-9 {
			t.Fatalf("delta[%d] = %v, want 1 with a shrunken window", i, row[0])
		}
	}
	for i, row := range delta([][]float64{{1}, {5}}) {
		if row[0] != 0 {
			t.Fatalf("delta[%d] = %v, want 0 for two frames", i, row[0])
		}
	}
	if got := delta(nil); len(got) != 0 {
		t.Fatalf("delta(nil) = %v", got)
	}
}

func TestRMSConstantSignal(t *testing.T) {
	y := make([]float32, 8192)
	for i := range y {
		y[i] = 0.5
	}
	r := RMS(y, FrameLength, HopLength)
	if len(r) != frameCount(len(y), HopLength) {
		t.Fatalf("frames = %d, want %d", len(r), frameCount(len(y), HopLength))
	}
	// Frames fully inside the signal.
	for t0 := 2; t0 < len(r)-2; t0++ {
		if math.Abs(r[t0]-0.5) > 1e-6 {
			t.Fatalf("rms[%d] = %v, want 0.5", t0, r[t0])
		}
	}
	// First frame is half zero padding.
	if want := math.Sqrt(0.125); math.Abs(r[0]-want) > 1e-6 {
		t.Errorf("rms[0] = %v, want %v", r[0], want)
	}
}

func TestZeroCrossingRateAlternating(t *testing.T) {
	y := make([]float32, 8192)
	for i := range y {
		y[i] = 1
		if i%2 == 1 {
			y[i] = -1
		}
	}
	z := ZeroCrossingRate(y, FrameLength, HopLength)
	want := float64(FrameLength-1) / FrameLength
	if math.Abs(z[4]-want) > 1e-9 {
		t.Errorf("zcr[4] = %v, want %v", z[4], want)
	}
	for _, v := range ZeroCrossingRate(make([]float32, 4096), FrameLength, HopLength) {
		if v != 0 {
			t.Fatalf("zcr of silence = %v, want 0", v)
		}
	}
	if got := ZeroCrossingRate(nil, FrameLength, HopLength); len(got) != 1 || got[0] != 0 {
		t.Errorf("zcr(nil) = %v, want [0]", got)
	}
}

func TestSpectralFlatnessNoiseVersusTone(t *testing.T) {
	const rate = 16000
	flatMean := func(y []float32) float64 {
		m, _ := MeanStd(SpectralFlatness(y, rate))
		return m
	}
	tone := flatMean(sine(440, 1, rate, 0.5))
	hiss := flatMean(noise(7, rate, 0.5))
	if !(hiss > 10*tone) {
		t.Fatalf("flatness noise = %v, tone = %v; want noise much flatter", hiss, tone)
	}
	for _, v := range SpectralFlatness(make([]float32, 4096), rate) {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("flatness of silence = %v, want 1", v)
		}
	}
}

func TestContrastSkipsBandsAboveNyquist(t *testing.T) {
	s := newSpectrogram(toFloat64(noise(3, 8000, 0.3)), 8000, FrameLength, HopLength)
	bands := contrast(s)
	// Lower edges 0, 200, ..., 3200 lie below 4 kHz; 6400 does not.
	if len(bands) != 6 {
		t.Fatalf("bands = %d, want 6", len(bands))
	}
	s = newSpectrogram(toFloat64(noise(3, 22050, 0.3)), 22050, FrameLength, HopLength)
	if got := len(contrast(s)); got != contrastBands+1 {
		t.Fatalf("bands at 22.05 kHz = %d, want %d", got, contrastBands+1)
	}
}

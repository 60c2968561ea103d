package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/artifact"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/features"
)

type fakeClassifier struct {
	pred artifact.Prediction
	err  error
	got  []float32
}

func (f *fakeClassifier) Predict(x []float32) (artifact.Prediction, error) {
	f.got = x
	return f.pred, f.err
}

func (f *fakeClassifier) Close() error { return nil }

type fakeSource struct {
	art   *artifact.Artifact
	err   error
	calls int
}

func (s *fakeSource) Get() (*artifact.Artifact, error) {
	s.calls++
	return s.art, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func identityScaler(n int) *artifact.Scaler {
	s := &artifact.Scaler{Mean: make([]float64, n), Scale: make([]float64, n)}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

func testArtifact(clf artifact.Classifier) *artifact.Artifact {
	return &artifact.Artifact{
		Kind:       "fake",
		Scaler:     identityScaler(features.VectorLen(features.DefaultNMFCC)),
		Classifier: clf,
	}
}

func TestSelectModel(t *testing.T) {
	clf := &fakeClassifier{pred: artifact.Prediction{Class: 1, Proba: []float64{0.2, 0.8}}}
	s, err := Select(ModeAuto, &fakeSource{art: testArtifact(clf)}, features.DefaultNMFCC, quietLogger())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Name() != string(SourceModel) {
		t.Fatalf("scorer = %s, want model", s.Name())
	}

	res := s.Score(wave(tone(440, 1, 0.5)))
	if res.Label != AIGenerated || res.Confidence != 0.8 || res.Source != SourceModel || res.Fallback != "" {
		t.Fatalf("result = %+v", res)
	}
	if len(clf.got) != features.VectorLen(features.DefaultNMFCC) {
		t.Fatalf("classifier saw %d features", len(clf.got))
	}
}

func TestSelectModelHumanClass(t *testing.T) {
	clf := &fakeClassifier{pred: artifact.Prediction{Class: 0, Proba: []float64{0.66, 0.34}}}
	s, _ := Select(ModeAuto, &fakeSource{art: testArtifact(clf)}, features.DefaultNMFCC, quietLogger())
	res := s.Score(wave(tone(440, 1, 0.5)))
	if res.Label != Human || res.Confidence != 0.66 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSelectFallsBackWhenUnavailable(t *testing.T) {
	src := &fakeSource{err: artifact.ErrNotTrained}
	s, err := Select(ModeAuto, src, features.DefaultNMFCC, quietLogger())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	res := s.Score(wave(silence(1)))
	if res.Label != Human || res.Confidence != 0.5 {
		t.Fatalf("result = %+v, want (HUMAN, 0.5)", res)
	}
	if res.Source != SourceHeuristic || res.Fallback != FallbackUnavailable {
		t.Fatalf("result = %+v, want heuristic fallback", res)
	}
}

func TestSelectRejectsWidthMismatch(t *testing.T) {
	art := testArtifact(&fakeClassifier{})
	art.Scaler = identityScaler(10)
	s, err := Select(ModeAuto, &fakeSource{art: art}, features.DefaultNMFCC, quietLogger())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Name() != string(SourceHeuristic) {
		t.Fatalf("scorer = %s, want heuristic", s.Name())
	}
}

type sizedClassifier struct {
	fakeClassifier
	width int
}

func (s *sizedClassifier) InputWidth() int { return s.width }

func TestSelectRejectsClassifierWidthMismatch(t *testing.T) {
	want := features.VectorLen(features.DefaultNMFCC)
	clf := &sizedClassifier{width: want + 2}
	s, err := Select(ModeAuto, &fakeSource{art: testArtifact(clf)}, features.DefaultNMFCC, quietLogger())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Name() != string(SourceHeuristic) {
		t.Fatalf("scorer = %s, want heuristic", s.Name())
	}
	if res := s.Score(wave(tone(440, 1, 0.5))); res.Fallback != FallbackUnavailable {
		t.Fatalf("fallback = %q, want %q", res.Fallback, FallbackUnavailable)
	}

	for _, width := range []int{want, 0} {
		clf := &sizedClassifier{width: width}
		clf.pred = artifact.Prediction{Class: 1, Proba: []float64{0.1, 0.9}}
		s, _ := Select(ModeAuto, &fakeSource{art: testArtifact(clf)}, features.DefaultNMFCC, quietLogger())
		if s.Name() != string(SourceModel) {
			t.Fatalf("width %d: scorer = %s, want model", width, s.Name())
		}
	}
}

func TestSelectHeuristicSkipsArtifact(t *testing.T) {
	src := &fakeSource{}
	s, err := Select(ModeHeuristic, src, features.DefaultNMFCC, quietLogger())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("artifact loaded %d times in heuristic mode", src.calls)
	}
	if res := s.Score(wave(silence(1))); res.Fallback != "" {
		t.Fatalf("fallback = %q, want none", res.Fallback)
	}
}

func TestSelectNilSource(t *testing.T) {
	s, err := Select(ModeAuto, nil, features.DefaultNMFCC, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Name() != string(SourceHeuristic) {
		t.Fatalf("scorer = %s, want heuristic", s.Name())
	}
}

func TestSelectUnknownMode(t *testing.T) {
	if _, err := Select("model", &fakeSource{}, features.DefaultNMFCC, quietLogger()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestModelBackedFallsBackPerRequest(t *testing.T) {
	cases := map[string]artifact.Prediction{
		"class out of range": {Class: 2, Proba: []float64{0.1, 0.1, 0.8}},
		"short proba":        {Class: 1, Proba: []float64{1}},
	}
	for name, pred := range cases {
		t.Run(name, func(t *testing.T) {
			s, _ := Select(ModeAuto, &fakeSource{art: testArtifact(&fakeClassifier{pred: pred})}, features.DefaultNMFCC, quietLogger())
			res := s.Score(wave(silence(1)))
			if res.Source != SourceHeuristic || res.Fallback != FallbackModelError {
				t.Fatalf("result = %+v, want heuristic after model error", res)
			}
			if res.Label != Human || res.Confidence != 0.5 {
				t.Fatalf("result = %+v, want (HUMAN, 0.5)", res)
			}
		})
	}

	t.Run("predict error", func(t *testing.T) {
		clf := &fakeClassifier{err: errors.New("boom")}
		s, _ := Select(ModeAuto, &fakeSource{art: testArtifact(clf)}, features.DefaultNMFCC, quietLogger())
		if res := s.Score(wave(silence(1))); res.Fallback != FallbackModelError {
			t.Fatalf("result = %+v", res)
		}
	})
}

func TestNewModelScorerIncomplete(t *testing.T) {
	if _, err := NewModelScorer(nil, features.DefaultNMFCC); !errors.Is(err, artifact.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if _, err := NewModelScorer(&artifact.Artifact{}, features.DefaultNMFCC); !errors.Is(err, artifact.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

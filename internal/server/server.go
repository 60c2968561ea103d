package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/config"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/engine"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/langid"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/observe"
)

// APIKeyHeader is the metadata key carrying the client's API key.
const APIKeyHeader = "x-api-key"

// messageHeadroom covers the Struct envelope around the base64 payload.
const messageHeadroom = 64 * 1024

// MaxMessageBytes is the largest request the transport should accept for
// audio of at most maxAudioBytes.
func MaxMessageBytes(maxAudioBytes int) int {
	return base64.StdEncoding.EncodedLen(maxAudioBytes) + messageHeadroom
}

// Server implements VoiceGuardServer. The scorer and language identifier
// are built once at startup and shared by all requests.
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	scorer  engine.Scorer
	lang    *langid.Identifier
	metrics *observe.Metrics
}

// New returns a Server. A nil lang reports English for every request; nil
// metrics use observe.DefaultMetrics.
func New(cfg config.Config, logger *slog.Logger, scorer engine.Scorer, lang *langid.Identifier, metrics *observe.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Server{
		cfg:     cfg,
		log:     logger.With("component", "server"),
		scorer:  scorer,
		lang:    lang,
		metrics: metrics,
	}
}

// DetectVoice decodes the WAV payload, then identifies the language,
// classifies the voice and measures speech continuity concurrently.
func (s *Server) DetectVoice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)

	resp, err := s.detect(ctx, log, in)
	s.metrics.RecordRequest(ctx, status.Code(err).String())
	s.metrics.ScoreDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		log.Debug("request rejected", "error", err)
		return nil, err
	}
	resp.RequestID = requestID
	return resp.Struct(), nil
}

func (s *Server) detect(ctx context.Context, log *slog.Logger, in *structpb.Struct) (Response, error) {
	if err := s.authorize(ctx); err != nil {
		return Response{}, err
	}

	req, err := ParseRequest(in)
	if err != nil {
		return Response{}, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if f := strings.ToLower(strings.TrimSpace(req.AudioFormat)); f != "" && f != "wav" {
		return Response{}, status.Errorf(codes.InvalidArgument, "unsupported audio_format %q, only wav is supported", req.AudioFormat)
	}
	if len(req.AudioBase64) > base64.StdEncoding.EncodedLen(s.cfg.MaxAudioBytes) {
		return Response{}, status.Errorf(codes.InvalidArgument, "audio exceeds %d bytes", s.cfg.MaxAudioBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return Response{}, status.Errorf(codes.InvalidArgument, "invalid audio: %v", err)
	}
	w, err := audio.DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		return Response{}, status.Errorf(codes.InvalidArgument, "invalid audio: %v", err)
	}

	var (
		language   string
		result     engine.Result
		continuity float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.metrics.ObserveStage(gctx, "langid", time.Now())
		language = s.lang.Identify(gctx, w)
		return nil
	})
	g.Go(func() error {
		defer s.metrics.ObserveStage(gctx, "classify", time.Now())
		result = s.scorer.Score(w)
		return nil
	})
	g.Go(func() error {
		defer s.metrics.ObserveStage(gctx, "continuity", time.Now())
		continuity = engine.Continuity(w, s.cfg.SilenceThresholdDB)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Response{}, status.FromContextError(err).Err()
	}

	s.metrics.RecordDecision(ctx, string(result.Source), string(result.Label), result.Fallback)
	log.Info("voice analysed",
		"duration", w.Duration(),
		"sample_rate", w.SampleRate,
		"language", language,
		"prediction", result.Label,
		"scorer", result.Source,
		"fallback", result.Fallback,
		"continuity", continuity,
	)

	return Response{
		Language:                 language,
		Prediction:               string(result.Label),
		Confidence:               round2(continuity),
		ClassificationConfidence: result.Confidence,
		Scorer:                   string(result.Source),
	}, nil
}

// authorize checks the API key when one is configured.
func (s *Server) authorize(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	for _, key := range md.Get(APIKeyHeader) {
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) == 1 {
			return nil
		}
	}
	return status.Error(codes.Unauthenticated, "invalid API key")
}

// round2 clamps v to [0, 1] and rounds it to two decimals.
func round2(v float64) float64 {
	return math.Round(min(1, max(0, v))*100) / 100
}

package transcription

import (
	"context"
	"math"
	"time"

	"github.com/kbukum/standin/provider"
)

// DefaultConfidence is reported by vendors that return no confidence score.
const DefaultConfidence = 0.5

// Chunk is one encoded audio payload sent to a provider.
type Chunk struct {
	// Data is the encoded audio (WAV for live windows).
	Data []byte
	// ContentType is the audio media type, e.g. "audio/wav".
	ContentType string
	// FileName is used for multipart uploads.
	FileName string
	// Duration of the audio, when known.
	Duration time.Duration
}

// Result is a successful transcription.
type Result struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	ProviderID string    `json:"providerId"`
	Language   string    `json:"language,omitempty"`
	LatencyMs  int64     `json:"latencyMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// Adapter is a single speech-to-text vendor.
type Adapter interface {
	provider.Provider

	// Transcribe converts chunk to text. The call must honor ctx's deadline.
	// Errors are *errors.AppError with an adapter error kind.
	Transcribe(ctx context.Context, chunk Chunk) (*Result, error)
}

// NormalizeConfidence clamps a vendor score into [0, 1]. Missing scores
// (nil) and NaN become DefaultConfidence.
func NormalizeConfidence(score *float64) float64 {
	if score == nil || math.IsNaN(*score) {
		return DefaultConfidence
	}
	return math.Max(0, math.Min(1, *score))
}

// ConfidenceFromLogprobs converts Whisper-style per-segment average log
// probabilities into a confidence: exp of their mean.
func ConfidenceFromLogprobs(logprobs []float64) float64 {
	if len(logprobs) == 0 {
		return DefaultConfidence
	}
	var sum float64
	for _, lp := range logprobs {
		sum += lp
	}
	c := math.Exp(sum / float64(len(logprobs)))
	return NormalizeConfidence(&c)
}

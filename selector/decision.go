package selector

import (
	apperrors "github.com/kbukum/standin/errors"
)

// Kind is the variant of a Decision.
type Kind string

const (
	KindPlayRecording    Kind = "play_recording"
	KindGenerateFallback Kind = "generate_fallback"
	KindNoAction         Kind = "no_action"
)

// Reason explains a NoAction decision.
type Reason string

const (
	ReasonEmptyTranscript     Reason = "empty_transcript"
	ReasonBelowThreshold      Reason = "below_threshold"
	ReasonNoQuestionsIndexed  Reason = "no_questions_indexed"
	ReasonNoRecording         Reason = "no_recording"
	ReasonTranscriptionFailed Reason = "transcription_failed"
	ReasonMatchFailed         Reason = "match_failed"
)

// Decision is the routing outcome for one transcribed window.
//
//   - PlayRecording carries QuestionID and RecordingID.
//   - GenerateFallback carries the transcript in QuestionText.
//   - NoAction carries Reason.
//
// Score is the best match score seen, when there was one.
type Decision struct {
	Kind         Kind    `json:"kind"`
	QuestionID   int64   `json:"questionId,omitempty"`
	RecordingID  int64   `json:"recordingId,omitempty"`
	QuestionText string  `json:"questionText,omitempty"`
	Reason       Reason  `json:"reason,omitempty"`
	Score        float64 `json:"score"`
	NearMiss     bool    `json:"nearMiss,omitempty"`
}

// PlayRecording builds a playback decision.
func PlayRecording(questionID, recordingID int64, score float64) Decision {
	return Decision{Kind: KindPlayRecording, QuestionID: questionID, RecordingID: recordingID, Score: score}
}

// GenerateFallback builds a generation decision for text.
func GenerateFallback(text string, score float64) Decision {
	return Decision{Kind: KindGenerateFallback, QuestionText: text, Score: score}
}

// NoAction builds a decision that delivers nothing.
func NoAction(reason Reason, score float64) Decision {
	return Decision{Kind: KindNoAction, Reason: reason, Score: score}
}

// Actionable reports whether the decision needs delivery.
func (d Decision) Actionable() bool { return d.Kind != KindNoAction }

// Err returns the non-fatal selector error for NoAction decisions that map
// to one, or nil.
func (d Decision) Err(threshold float64) error {
	if d.Kind != KindNoAction {
		return nil
	}
	switch d.Reason {
	case ReasonBelowThreshold:
		return apperrors.BelowThreshold(d.Score, threshold)
	case ReasonNoQuestionsIndexed:
		return apperrors.NoQuestionsIndexed()
	}
	return nil
}

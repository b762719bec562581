// Package questionbank persists the question set, the answer recordings
// and the per-session interaction log.
package questionbank

import "time"

// Category values used by the bank.
const (
	CategoryGeneral = "general"
	CategoryCustom  = "custom"
)

// Question is a persisted question.
type Question struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Category  string    `gorm:"size:50;not null;default:general" json:"category"`
	IsDefault bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recording is a pre-recorded answer to a question. At most one recording
// per question is active.
type Recording struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	QuestionID      int64     `gorm:"index;not null" json:"questionId"`
	MediaRef        string    `gorm:"size:500;not null" json:"mediaRef"`
	DurationSeconds float64   `json:"durationSeconds"`
	Active          bool      `gorm:"index;not null;default:false" json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Interaction is one routed decision made during a session.
type Interaction struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"size:36;index;not null" json:"sessionId"`
	Transcript  string    `gorm:"type:text" json:"transcript"`
	ProviderID  string    `gorm:"size:50" json:"providerId,omitempty"`
	Decision    string    `gorm:"size:30;not null" json:"decision"`
	Reason      string    `gorm:"size:50" json:"reason,omitempty"`
	QuestionID  *int64    `json:"questionId,omitempty"`
	RecordingID *int64    `json:"recordingId,omitempty"`
	Score       float64   `json:"score"`
	Delivered   bool      `json:"delivered"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// Models lists the tables owned by the bank, for auto-migration.
func Models() []interface{} {
	return []interface{}{&Question{}, &Recording{}, &Interaction{}}
}

// DefaultQuestions is the question set seeded into an empty bank.
var DefaultQuestions = []string{
	"Can you introduce yourself?",
	"What's your role in this project?",
	"What are your thoughts on this proposal?",
	"Do you have any questions or concerns?",
	"What's your availability for the next phase?",
	"Can you provide a status update?",
	"What are the next steps?",
	"Do you agree with this approach?",
	"What's your opinion on the timeline?",
	"Any blockers or dependencies?",
	"What resources do you need?",
	"Can you walk us through your findings?",
	"What are the risks involved?",
	"How do you see this impacting the project?",
	"What's your recommendation?",
}

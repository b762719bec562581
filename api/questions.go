package api

import (
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/questionindex"
	"github.com/kbukum/standin/server"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/validation"
)

// QuestionRequest is the body of POST and PUT /questions.
type QuestionRequest struct {
	Text     string `json:"text" validate:"notblank,max=500"`
	Category string `json:"category" validate:"omitempty,max=50"`
}

// RecordingRequest is the body of POST /questions/:id/recordings.
type RecordingRequest struct {
	MediaRef        string  `json:"mediaRef" validate:"notblank,max=500"`
	DurationSeconds float64 `json:"durationSeconds" validate:"gte=0"`
	Active          bool    `json:"active"`
}

// MatchResponse is the body of GET /questions/match.
type MatchResponse struct {
	Text    string                      `json:"text"`
	Matches []questionindex.MatchResult `json:"matches"`
}

// Match ranks the indexed questions against text.
func (h *Handler) Match(c *gin.Context) {
	text := c.Query("text")
	k, err := queryInt(c, "k", h.cfg.MatchTopK)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := validation.New().Required("text", text).Range("k", k, 1, h.cfg.MaxMatchK).Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	matches, err := h.index.Query(c.Request.Context(), text, k)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if matches == nil {
		matches = []questionindex.MatchResult{}
	}
	c.JSON(http.StatusOK, MatchResponse{Text: text, Matches: matches})
}

func (h *Handler) ListQuestions(c *gin.Context) {
	qs, err := h.bank.ListQuestions(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondList(c, qs)
}

func (h *Handler) GetQuestion(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	q, err := h.bank.GetQuestion(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, q)
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := h.bindValid(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	q, err := h.bank.CreateQuestion(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, q)
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req QuestionRequest
	if err := h.bindValid(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	q, err := h.bank.UpdateQuestion(c.Request.Context(), id, req.Text, req.Category)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, q)
}

// DeleteQuestion removes the question and its recordings.
func (h *Handler) DeleteQuestion(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.bank.DeleteQuestion(c.Request.Context(), id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) ListRecordings(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	recs, err := h.bank.ListRecordings(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, recs)
}

// AddRecording attaches a recording to a question. An active recording
// replaces the question's current one.
func (h *Handler) AddRecording(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req RecordingRequest
	if err := h.bindValid(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec := &questionbank.Recording{
		QuestionID:      id,
		MediaRef:        req.MediaRef,
		DurationSeconds: req.DurationSeconds,
		Active:          req.Active,
	}
	if err := h.bank.AddRecording(c.Request.Context(), rec); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, rec)
}

func (h *Handler) ActivateRecording(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec, err := h.bank.ActivateRecording(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}

// DeleteRecording removes a recording and, when media storage is
// configured, its media object. A media delete failure is logged only.
func (h *Handler) DeleteRecording(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec, err := h.bank.DeleteRecording(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if h.media != nil {
		if err := h.media.Delete(c.Request.Context(), rec.MediaRef); err != nil {
			h.log.Warn("recording media not removed", logger.Fields(
				"recording_id", rec.ID,
				"media_ref", rec.MediaRef,
				logger.FieldError, err.Error(),
			))
		}
	}
	server.RespondNoContent(c)
}

// RecordingMedia streams the media of a recording with its sniffed type.
func (h *Handler) RecordingMedia(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	rec, err := h.bank.GetRecording(ctx, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if ok, err := h.media.Exists(ctx, rec.MediaRef); err != nil || !ok {
		if err == nil {
			err = apperrors.NotFound("media", rec.MediaRef)
		}
		server.RespondWithError(c, err)
		return
	}
	data, err := storage.GetBytes(ctx, h.media, rec.MediaRef)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// ListInteractions returns the newest interactions of a session, oldest first.
func (h *Handler) ListInteractions(c *gin.Context) {
	limit, err := queryInt(c, "limit", h.cfg.InteractionLimit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := validation.New().Range("limit", limit, 1, 1000).Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	items, err := h.bank.ListInteractions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondList(c, items)
}

func (h *Handler) bindValid(c *gin.Context, dst any) error {
	if err := bindJSON(c, dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/standin/server"
)

// GenerateRequest is the body of POST /responses/generate.
type GenerateRequest struct {
	Question string `json:"question" validate:"notblank,max=1000"`
	Context  string `json:"context" validate:"omitempty,max=4000"`
}

// GeneratedAnswer carries a generated answer.
type GeneratedAnswer struct {
	Response string `json:"response"`
}

// GenerateResponse answers a question directly with the fallback
// generator, outside any session.
func (h *Handler) GenerateResponse(c *gin.Context) {
	var req GenerateRequest
	if err := h.bindValid(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	text, err := h.answer.Generate(c.Request.Context(), req.Question, req.Context)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, GeneratedAnswer{Response: text})
}

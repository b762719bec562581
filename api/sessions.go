package api

import (
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/server"
	"github.com/kbukum/standin/session"
	"github.com/kbukum/standin/sse"
)

// PushResponse is the body of POST /sessions/:id/audio.
type PushResponse struct {
	Accepted int           `json:"accepted"`
	Stats    session.Stats `json:"stats"`
}

// CreateSession starts a session. An empty body creates a push session.
func (h *Handler) CreateSession(c *gin.Context) {
	var opts session.CreateOptions
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &opts); err != nil {
			server.RespondWithError(c, err)
			return
		}
	}
	s, err := h.sessions.Create(c.Request.Context(), opts)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, s.Info())
}

func (h *Handler) ListSessions(c *gin.Context) {
	infos := h.sessions.List()
	server.RespondList(c, infos)
}

func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, s.Info())
}

// PushAudio appends raw PCM in the session format. It returns as soon as
// the samples are buffered; transcription happens in the background.
func (h *Handler) PushAudio(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	pcm, err := io.ReadAll(c.Request.Body)
	if err != nil {
		server.RespondWithError(c, apperrors.Malformed("audio body could not be read").WithCause(err))
		return
	}
	frame := h.sessions.Config().Format.FrameSize()
	switch {
	case len(pcm) == 0:
		server.RespondWithError(c, apperrors.Malformed("audio body is empty"))
		return
	case len(pcm)%frame != 0:
		server.RespondWithError(c, apperrors.Malformed("audio body is not a whole number of PCM frames"))
		return
	}
	if err := s.Write(pcm); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, PushResponse{Accepted: len(pcm), Stats: s.Info().Stats})
}

// EndSession stops a session, flushing its partial window, and returns the
// final snapshot.
func (h *Handler) EndSession(c *gin.Context) {
	info, err := h.sessions.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, info)
}

// SessionEvents streams the session's events as server-sent events.
func (h *Handler) SessionEvents(c *gin.Context) {
	if h.hub == nil {
		server.RespondWithError(c, apperrors.Unavailable("event stream"))
		return
	}
	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	sse.ServeSSE(h.hub, c.Writer, c.Request, id)
}

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/standin/audio"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/server"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/transcription"
	"github.com/kbukum/standin/validation"
)

// LiveRequest is the body of POST /speech-to-text/live.
type LiveRequest struct {
	DurationSeconds  float64 `json:"durationSeconds" validate:"gt=0"`
	PreferredService string  `json:"preferredService"`
}

// TranscriptionResponse wraps a router result.
type TranscriptionResponse struct {
	Transcription *transcription.Result `json:"transcription"`
	ArchivedAs    string                `json:"archivedAs,omitempty"`
}

// TestProviders probes every provider with one second of silence. The
// response always has an entry per configured provider.
func (h *Handler) TestProviders(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Probe(c.Request.Context()))
}

// Providers returns the health snapshot of every provider.
func (h *Handler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, h.health.Snapshot())
}

// Live records from the default input device and transcribes the capture.
func (h *Handler) Live(c *gin.Context) {
	var req LiveRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	err := validation.New().
		Custom(req.DurationSeconds <= float64(h.cfg.MaxLiveSeconds), "durationSeconds",
			fmt.Sprintf("must be at most %d", h.cfg.MaxLiveSeconds)).
		OneOf("preferredService", req.PreferredService, h.router.Providers()).
		Err()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	d := time.Duration(req.DurationSeconds * float64(time.Second))
	pcm, err := h.record(ctx, h.format, d)
	if err != nil {
		if ctx.Err() != nil {
			server.RespondWithError(c, apperrors.Timeout("audio capture").WithCause(err))
			return
		}
		server.RespondWithError(c, apperrors.Unavailable("audio device").WithCause(err))
		return
	}
	if len(pcm) == 0 {
		server.RespondWithError(c, apperrors.Malformed("audio capture produced no samples"))
		return
	}
	wav, err := audio.EncodeWAV(pcm, h.format)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	chunk := transcription.Chunk{
		Data:        wav,
		ContentType: "audio/wav",
		FileName:    "live.wav",
		Duration:    h.format.Duration(len(pcm)),
	}
	res, err := h.router.Transcribe(ctx, chunk, router.Prefer(req.PreferredService))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TranscriptionResponse{Transcription: res})
}

// TranscribeUpload transcribes a multipart "audio" file. The encoding is
// sniffed first; empty or unsupported audio is rejected before any provider
// is called.
func (h *Handler) TranscribeUpload(c *gin.Context) {
	preferred := c.PostForm("preferredService")
	if err := validation.New().OneOf("preferredService", preferred, h.router.Providers()).Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("audio", "multipart file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		server.RespondWithError(c, apperrors.Malformed("audio upload could not be read").WithCause(err))
		return
	}

	det, err := audio.Detect(data)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	chunk := transcription.Chunk{
		Data:        data,
		ContentType: det.MediaType,
		FileName:    "upload" + det.Extension,
	}
	if det.MediaType == "audio/wav" {
		pcm, format, err := audio.DecodeWAV(data)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if len(pcm) == 0 {
			server.RespondWithError(c, apperrors.Malformed("wav upload has no samples"))
			return
		}
		chunk.Duration = format.Duration(len(pcm))
	}

	ctx := c.Request.Context()
	archived := h.archiveUpload(ctx, data, det)

	res, err := h.router.Transcribe(ctx, chunk, router.Prefer(preferred))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TranscriptionResponse{Transcription: res, ArchivedAs: archived})
}

// archiveUpload stores the upload under prefix/yyyy/mm/dd/uuid.ext. A
// failure is logged and does not fail the request.
func (h *Handler) archiveUpload(ctx context.Context, data []byte, det audio.Detected) string {
	if h.archive == nil {
		return ""
	}
	path := fmt.Sprintf("%s/%s/%s%s", h.cfg.ArchivePrefix, h.now().UTC().Format("2006/01/02"), uuid.NewString(), det.Extension)
	if err := storage.PutBytes(ctx, h.archive, path, data); err != nil {
		h.log.Warn("upload archive failed", logger.Fields(
			"path", path,
			logger.FieldError, err.Error(),
		))
		return ""
	}
	return path
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/standin/errors"
)

// DataResponse wraps every successful JSON body.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta describes list responses.
type Meta struct {
	Total int `json:"total"`
}

// RespondWithError writes err in the error envelope. The HTTP status comes
// from the error kind, so unclassified errors surface as INTERNAL_ERROR/500.
// The original error stays on the gin context for the request logger.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends data with 200.
func RespondOK(c *gin.Context, data any) { respond(c, http.StatusOK, data, nil) }

// RespondList sends a list with its length in meta.total.
func RespondList[T any](c *gin.Context, items []T) {
	respond(c, http.StatusOK, items, &Meta{Total: len(items)})
}

// RespondCreated sends data with 201.
func RespondCreated(c *gin.Context, data any) { respond(c, http.StatusCreated, data, nil) }

// RespondAccepted sends data with 202. Audio pushes use it: the windows are
// queued, not yet transcribed.
func RespondAccepted(c *gin.Context, data any) { respond(c, http.StatusAccepted, data, nil) }

// RespondNoContent sends an empty 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respond(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, DataResponse{Data: data, Meta: meta})
}

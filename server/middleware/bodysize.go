package middleware

import (
	"net/http"

	"github.com/kbukum/standin/util"
)

const defaultMaxBodySize = 10 << 20

// BodySizeLimit restricts request bodies to maxSize (e.g. "10MB"). Reads past
// the limit fail and the handler reports the error.
func BodySizeLimit(maxSize string) Middleware {
	size := util.SizeOr(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large.")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

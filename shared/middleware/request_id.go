package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/itchan-dev/forum/shared/logger"
)

const RequestIDHeader = "X-Request-ID"

// only short opaque ids from upstream proxies are trusted
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9\-_.]{1,64}$`)

// RequestID tags every request with an id that is echoed in the response and
// attached to log records through logger.Ctx.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

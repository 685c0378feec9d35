package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"loadvoice/pkg/requestcontext"
)

// requestIDHeader is honored when the caller supplies its own correlation id.
const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation id, generating one when the
// caller did not send one, and echoes it back in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

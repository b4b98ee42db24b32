package server

import (
	"context"
	"net/http"
	"strconv"

	svcErr "github.com/oggyb/matchme/internal/errors"
)

type contextKey string

const callerKey contextKey = "caller_id"

// CallerHeader carries the authenticated user id, injected by the gateway
// in front of this core. Credential parsing is not this service's job.
const CallerHeader = "X-User-ID"

// CallerIdentity extracts the authenticated caller id from the request
// and stores it in the context. Requests without a valid id are rejected
// before reaching any handler.
func CallerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.Header.Get(CallerHeader), 10, 64)
		if err != nil || id == 0 {
			svcErr.WriteJSON(w, svcErr.InvalidArgument("missing or invalid caller identity"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, id)))
	})
}

// CallerID returns the authenticated caller id stored by CallerIdentity.
func CallerID(ctx context.Context) uint64 {
	id, _ := ctx.Value(callerKey).(uint64)
	return id
}

package middleware

import (
	"net/http"

	pnet "ridepulse/internal/platform/net"
)

// AuthPort is the seam the api auth check implements
type AuthPort interface {
	// Parse returns the authenticated client id from the request or an error
	Parse(r *http.Request) (clientID string, err error)
}

// Auth rejects unauthenticated requests via the port. Nil port disables the check
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			cid, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithClient(r.Context(), cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/rate"
)

// Ratelimit throttles a route per client address. Meant for the auth
// and token endpoints, which are the ones worth brute-forcing.
func Ratelimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.Check(host) {
				err := errors.New("too many requests")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

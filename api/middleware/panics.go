package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dimasfr/learnmarket/api/web"
)

// Panics recovers handler panics and turns them into errors so the
// errors middleware can respond with a 500 instead of killing the
// connection.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type HandleErrorFunc func(w http.ResponseWriter, r *http.Request, err error)
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func toHTTPHandlerFunc(handler HandlerFunc, errorHandler HandleErrorFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		err := handler(writer, request)
		if err != nil {
			errorHandler(writer, request, err)
		}
	}
}

func (a *TokenApi) routes(opts *RunOptions) (chi.Router, error) {
	r := chi.NewRouter()

	if opts.UseRealIPMiddleware {
		r.Use(middleware.RealIP)
	}
	if opts.CollectMetrics {
		r.Use(metricsMiddleware)
	}
	if opts.RateLimiterOpts != nil {
		rateLimiter, err := createRateLimiter(opts.RateLimiterOpts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		r.Use(rateLimiter.RateLimit)
	}
	if opts.RequestIDMiddleware {
		r.Use(middleware.RequestID)
	}
	if opts.LogHttpRequestOpts {
		r.Use(CreateLoggerMiddleware(zap.L()))
	}
	if opts.RouteNotFoundHandler != nil {
		r.NotFound(opts.RouteNotFoundHandler)
	}

	errHandler := NewErrorHandler(zap.L())
	checkAuthMiddleware := createCheckAuthMiddleware(a.app, errHandler.Handle)

	wrapper := func(handlerFunc HandlerFunc) http.HandlerFunc {
		return toHTTPHandlerFunc(handlerFunc, errHandler.Handle)
	}

	if opts.EnableHeartbeatRoute {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte("OK")); err != nil {
				zap.S().Errorf("Can't write 'OK' to ResponseWriter: %+v", err)
				w.WriteHeader(http.StatusInternalServerError)
			}
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(JsonContentTypeMiddleware)

		r.Route("/assets/{symbol}", func(r chi.Router) {
			r.Get("/", wrapper(a.Asset))
			r.Get("/balance/{address}", wrapper(a.Balance))
			r.Get("/allowance/{owner}/{spender}", wrapper(a.Allowance))
		})

		r.Route("/gateways/{symbol}", func(r chi.Router) {
			r.Get("/", wrapper(a.Gateway))
			r.Get("/version/{address}", wrapper(a.VersionFor))

			rAuth := r.With(checkAuthMiddleware)

			rAuth.Post("/{method}", wrapper(a.Call))
		})

		r.Get("/icap/{code}", wrapper(a.ResolveICAP))

		r.Route("/events", func(r chi.Router) {
			r.Get("/length", wrapper(a.EventsLength))
			r.Get("/seq/{from:\\d+}/{to:\\d+}", wrapper(a.Events))
		})
	})

	return r, nil
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
	"go.uber.org/zap"

	apiErrs "github.com/wavesplatform/etoken/pkg/api/errors"
	"github.com/wavesplatform/etoken/pkg/errs"
)

const httpAPIMetricsNamespace = "etoken_http_api"

var (
	metricRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "requests",
			Help:      "HTTP API requests by route and status",
		},
		[]string{"status", "method", "path"},
	)
	metricRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
		},
		[]string{"method", "path"},
	)
	metricCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "gateway_calls",
			Help:      "Gateway calls made through the API by symbol, method and result",
		},
		[]string{"symbol", "method", "result"},
	)
)

func init() {
	prometheus.MustRegister(metricRequests, metricRequestDuration, metricCalls)
}

func callResult(o errs.Outcome, err error) string {
	switch {
	case err != nil:
		return "failed"
	case o.Accepted:
		return "accepted"
	default:
		return string(o.Code)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func wrapWriter(w http.ResponseWriter, r *http.Request) middleware.WrapResponseWriter {
	if ww, ok := w.(middleware.WrapResponseWriter); ok {
		return ww
	}
	return middleware.NewWrapResponseWriter(w, r.ProtoMajor)
}

// CreateLoggerMiddleware logs every served request. Server errors are logged at warn level.
func CreateLoggerMiddleware(l *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrapWriter(w, r)
			begin := time.Now()
			defer func() {
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("lat", time.Since(begin)),
					zap.Int("status", ww.Status()),
					zap.Int("size", ww.BytesWritten()),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				}
				if ww.Status() >= http.StatusInternalServerError {
					l.Warn("ServedHttpRequest", fields...)
					return
				}
				l.Info("ServedHttpRequest", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := wrapWriter(w, r)
		begin := time.Now()
		defer func() {
			path := routePattern(r)
			metricRequests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method, path).Inc()
			metricRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(begin).Seconds())
		}()
		next.ServeHTTP(ww, r)
	})
}

func JsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func createCheckAuthMiddleware(app *App, errorHandler HandleErrorFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := app.checkAuth(r.Header.Get(ApiKeyHeader)); err != nil {
				errorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// createRateLimiter limits requests per client address. Clients presenting an API key get a bucket of their own.
func createRateLimiter(opts *RateLimiterOptions) (*throttled.HTTPRateLimiter, error) {
	store, err := memstore.New(opts.MemoryCacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create rate limiter store of capacity %d", opts.MemoryCacheSize)
	}
	quota := throttled.RateQuota{
		MaxRate:  throttled.PerSec(opts.MaxRequestsPerSecond),
		MaxBurst: opts.MaxBurst,
	}
	limiter, err := throttled.NewGCRARateLimiter(store, quota)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rate limiter")
	}
	return &throttled.HTTPRateLimiter{
		RateLimiter: limiter,
		VaryBy: &throttled.VaryBy{
			RemoteAddr: true,
			Headers:    []string{ApiKeyHeader},
		},
		DeniedHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apiErrs.ErrTooManyRequests.GetHttpCode())
			_ = json.NewEncoder(w).Encode(apiErrs.ErrTooManyRequests)
		}),
	}, nil
}

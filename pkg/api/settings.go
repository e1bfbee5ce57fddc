package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRateLimiterStorageSize = 64 * 1024 // 64 KB

	defaultReadHeaderTimeout = 10 * time.Second
)

type RunOptions struct {
	RateLimiterOpts      *RateLimiterOptions
	MaxConnections       int
	LogHttpRequestOpts   bool
	CollectMetrics       bool
	UseRealIPMiddleware  bool
	RequestIDMiddleware  bool
	EnableHeartbeatRoute bool
	RouteNotFoundHandler func(w http.ResponseWriter, r *http.Request)
}

type RateLimiterOptions struct {
	MemoryCacheSize      int
	MaxRequestsPerSecond int
	MaxBurst             int
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		RateLimiterOpts: &RateLimiterOptions{
			MemoryCacheSize:      DefaultRateLimiterStorageSize,
			MaxRequestsPerSecond: 10,
			MaxBurst:             20,
		},
		LogHttpRequestOpts:   false,
		EnableHeartbeatRoute: true,
		UseRealIPMiddleware:  true,
		RequestIDMiddleware:  true,
		CollectMetrics:       true,
		RouteNotFoundHandler: func(w http.ResponseWriter, r *http.Request) {
			zap.S().Named("api").Debugf("Route not found %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		},
	}
}

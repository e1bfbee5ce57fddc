package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wavesplatform/etoken/cmd/etokend/internal/node"
	"github.com/wavesplatform/etoken/pkg/api"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/libs/ntptime"
	"github.com/wavesplatform/etoken/pkg/metrics"
	"github.com/wavesplatform/etoken/pkg/settings"
	"github.com/wavesplatform/etoken/pkg/types"
	"github.com/wavesplatform/etoken/pkg/util/common"
)

const (
	defaultTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	ntpInterval     = 2 * time.Minute
	ntpRetries      = 5
)

type config struct {
	cfgPath    string
	logLevel   string
	logFilter  string
	dataDir    string
	apiAddr    string
	prometheus string
	disableNTP bool
}

func (c *config) parse() {
	flag.StringVarP(&c.cfgPath, "config", "c", "", "Path to the JSON settings file.")
	flag.StringVar(&c.logLevel, "log-level", "INFO",
		"Logging level. Supported levels: DEBUG, INFO, WARN, ERROR, FATAL. Default logging level INFO.")
	flag.StringVar(&c.logFilter, "log-filter", "",
		"Logger name filter rules, for example \"debug:gateway,asset info:*\". Empty value disables filtering.")
	flag.StringVar(&c.dataDir, "data-dir", "", "Path to the data directory, overrides the settings file.")
	flag.StringVar(&c.apiAddr, "api-address", "", "Address to bind the HTTP API, overrides the settings file.")
	flag.StringVar(&c.prometheus, "prometheus", "", "Address to serve Prometheus metrics, overrides the settings file.")
	flag.BoolVar(&c.disableNTP, "disable-ntp", false, "Use the local clock instead of NTP corrected time.")
	flag.Parse()
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	c := new(config)
	c.parse()
	logger, err := common.SetupFilteredLogger(c.logLevel, c.logFilter)
	if err != nil {
		zap.S().Errorf("Failed to setup logger: %v", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()
	if err := run(c); err != nil {
		zap.S().Errorf("Failed to run token service: %v", err)
		return 1
	}
	return 0
}

func loadSettings(c *config) (*settings.Settings, error) {
	if c.cfgPath == "" {
		return nil, errors.New("settings file is not specified")
	}
	s, err := settings.ReadSettings(afero.NewOsFs(), c.cfgPath)
	if err != nil {
		return nil, err
	}
	if c.dataDir != "" {
		s.DataDir = c.dataDir
	}
	if s.DataDir == "" {
		if s.DataDir, err = common.DefaultDataDir(); err != nil {
			return nil, err
		}
	}
	if c.apiAddr != "" {
		s.API.Address = c.apiAddr
	}
	if c.prometheus != "" {
		s.Metrics.PrometheusAddress = c.prometheus
	}
	return s, s.Validate()
}

func run(c *config) (retErr error) {
	cfg, err := loadSettings(c)
	if err != nil {
		return errors.Wrap(err, "invalid settings")
	}
	eg, ctx := errgroup.WithContext(context.Background())
	defer func() {
		if wErr := eg.Wait(); wErr != nil && !errors.Is(wErr, context.Canceled) && retErr == nil {
			retErr = wErr
		}
	}()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if addr := cfg.Metrics.PrometheusAddress; addr != "" {
		eg.Go(func() error {
			<-runPrometheusMetricsServer(ctx, addr)
			return nil
		})
	}
	if cfg.Metrics.InfluxURL != "" {
		if err := metrics.Start(ctx, cfg.Metrics.ReporterID, cfg.Metrics.InfluxURL); err != nil {
			zap.S().Warnf("Metrics reporting failed to start: %v", err)
			zap.S().Warn("Proceeding without reporting any metrics")
		} else {
			zap.S().Info("Metrics reporting activated")
		}
	}

	clock, err := getNtp(ctx, eg, cfg.NTPServer, c.disableNTP)
	if err != nil {
		return errors.Wrap(err, "failed to get NTP time")
	}

	kv, err := keyvalue.NewKeyVal(cfg.DataDir, keyvalue.DefaultBloomFilterParams)
	if err != nil {
		return errors.Wrap(err, "failed to open storage")
	}
	defer func() {
		cancel()
		_ = eg.Wait()
		if clErr := kv.Close(); clErr != nil && retErr == nil {
			retErr = errors.Wrap(clErr, "failed to close storage")
		}
	}()

	n, err := node.New(ctx, kv, cfg, clock)
	if err != nil {
		return errors.Wrap(err, "failed to bootstrap")
	}
	app, err := api.NewApp(cfg.API.ApiKey, cfg.API.Sender, n.Ledger, n.Gateways, n.Registry, n.Log)
	if err != nil {
		return errors.Wrap(err, "failed to create API")
	}
	opts := api.DefaultRunOptions()
	opts.LogHttpRequestOpts = cfg.API.LogRequests
	opts.MaxConnections = cfg.API.MaxConnections
	if cfg.API.MaxRequestsPerSecond > 0 {
		opts.RateLimiterOpts.MaxRequestsPerSecond = cfg.API.MaxRequestsPerSecond
		opts.RateLimiterOpts.MaxBurst = cfg.API.MaxBurst
	} else {
		opts.RateLimiterOpts = nil
	}
	eg.Go(func() error {
		zap.S().Infof("Starting API on %s", cfg.API.Address)
		return api.Run(ctx, cfg.API.Address, api.NewTokenApi(app), opts)
	})

	<-ctx.Done()
	zap.S().Info("User termination in progress...")
	return nil
}

func getNtp(ctx context.Context, eg *errgroup.Group, server string, disable bool) (types.Time, error) {
	if disable {
		return types.SystemTime{}, nil
	}
	tm := ntptime.New(server)
	if tm.Err() != nil {
		if err := tm.Sync(ctx, ntpRetries); err != nil {
			return nil, err
		}
	}
	eg.Go(func() error {
		tm.Run(ctx, ntpInterval)
		return nil
	})
	return tm, nil
}

func runPrometheusMetricsServer(ctx context.Context, prometheusAddr string) <-chan struct{} {
	h := http.NewServeMux()
	h.Handle("/metrics", promhttp.Handler())
	s := &http.Server{
		Addr:              prometheusAddr,
		Handler:           h,
		ReadHeaderTimeout: defaultTimeout,
		ReadTimeout:       defaultTimeout,
	}
	s.RegisterOnShutdown(func() {
		zap.S().Info("Prometheus metrics server is shutting down...")
	})
	go func() {
		zap.S().Infof("Starting prometheus metrics server on %s", prometheusAddr)
		err := s.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Errorf("Failed to start prometheus metrics server: %v", err)
		}
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("Failed to shutdown prometheus: %v", err)
		}
	}()
	return done
}

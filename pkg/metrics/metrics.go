package metrics

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"time"

	influx "github.com/influxdata/influxdb1-client/v2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/events"
)

const (
	defaultTimeout = 5 * time.Second
	defaultPort    = 8086
	reportInterval = time.Second
	bufferSize     = 2000
)

var rep atomic.Pointer[reporter]

type tags map[string]string

func newTags(r *reporter) tags {
	t := make(map[string]string)
	t["node"] = strconv.Itoa(r.id)
	return t
}

func (t tags) withEvent(name events.Name) tags {
	t["event"] = string(name)
	return t
}

func (t tags) withSymbol(e events.Event) tags {
	if !e.Symbol.IsZero() {
		t["symbol"] = e.Symbol.String()
	}
	return t
}

type fields map[string]interface{}

func newFields(r *reporter) fields {
	f := make(map[string]interface{})
	f["node"] = r.id
	return f
}

func (f fields) withEmitter(e events.Event) fields {
	f["emitter"] = e.Emitter.String()
	return f
}

func (f fields) withValue(e events.Event) fields {
	if e.Value != nil {
		f["value"] = e.Value.Dec()
	}
	return f
}

func (f fields) withCode(e events.Event) fields {
	if e.Code != "" {
		f["code"] = string(e.Code)
	}
	return f
}

type reporter struct {
	c         influx.Client
	id        int
	batchConf influx.BatchPointsConfig
	ticker    *time.Ticker
	points    []*influx.Point
	in        chan *influx.Point
}

// Start begins reporting events to the InfluxDB instance at url until ctx is done.
func Start(ctx context.Context, id int, url string) error {
	if id < 0 {
		return errors.Errorf("invalid metrics ID %d", id)
	}
	cfg, db, err := parseURL(url)
	if err != nil {
		return err
	}
	c, err := influx.NewHTTPClient(cfg)
	if err != nil {
		return err
	}
	d, v, err := c.Ping(defaultTimeout)
	if err != nil {
		return err
	}
	zap.S().Infof("InfluxDB/Telegraf %s replied in %s", v, d)
	r := &reporter{
		c:         c,
		id:        id,
		batchConf: influx.BatchPointsConfig{Database: db},
		ticker:    time.NewTicker(reportInterval),
		in:        make(chan *influx.Point, bufferSize),
	}
	if !rep.CompareAndSwap(nil, r) {
		_ = c.Close()
		return errors.New("metrics reporting is already started")
	}
	go r.run(ctx)
	return nil
}

func (r *reporter) run(ctx context.Context) {
	defer r.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			rep.Store(nil)
			if err := r.c.Close(); err != nil {
				zap.S().Warnf("Failed to close connection to InfluxDB: %v", err)
			}
			return
		case <-r.ticker.C:
			if len(r.points) == 0 {
				continue
			}
			if err := r.report(); err != nil {
				zap.S().Warnf("Failed to report metrics: %v", err)
			}
			r.points = r.points[:0]
		case p := <-r.in:
			r.points = append(r.points, p)
		}
	}
}

func (r *reporter) report() error {
	batch, err := influx.NewBatchPoints(r.batchConf)
	if err != nil {
		return err
	}
	batch.AddPoints(r.points)
	return r.c.Write(batch)
}

func parseURL(s string) (influx.HTTPConfig, string, error) {
	uri, err := url.Parse(s)
	if err != nil {
		return influx.HTTPConfig{}, "", err
	}
	cfg := influx.HTTPConfig{}
	if uri.User != nil {
		cfg.Username = uri.User.Username()
		password, set := uri.User.Password()
		if set {
			cfg.Password = password
		}
	}
	ps := uri.Port()
	var p int
	if ps != "" {
		p, err = strconv.Atoi(ps)
		if err != nil {
			return influx.HTTPConfig{}, "", errors.Wrap(err, "invalid port number")
		}
		if p <= 0 || p > 65535 {
			return influx.HTTPConfig{}, "", errors.Errorf("invalid port number %d", p)
		}
	} else {
		p = defaultPort
	}
	cfg.Addr = fmt.Sprintf("%s://%s:%d", uri.Scheme, uri.Hostname(), p)
	db := path.Base(path.Clean(uri.Path))
	if db == "." || db == "/" || db == "" {
		return influx.HTTPConfig{}, "", errors.New("empty database")
	}
	return cfg, db, nil
}

func reportEvent(e events.Event) {
	r := rep.Load()
	if r == nil {
		return
	}
	t := newTags(r).withEvent(e.Name).withSymbol(e)
	f := newFields(r).withEmitter(e).withValue(e).withCode(e)
	p, err := influx.NewPoint("event", t, f, time.Now())
	if err != nil {
		zap.S().Warnf("Failed to create metrics point 'event': %v", err)
		return
	}
	select {
	case r.in <- p:
	default:
		zap.S().Debug("Metrics buffer is full, event point dropped")
	}
}

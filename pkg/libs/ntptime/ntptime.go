package ntptime

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type inner interface {
	Query(addr string) (*ntp.Response, error)
}

type ntpInner struct {
}

func (a ntpInner) Query(addr string) (*ntp.Response, error) {
	return ntp.Query(addr)
}

// NtpTime is a wall clock corrected by the offset reported by an NTP server.
// Until the first successful query the offset is zero.
type NtpTime struct {
	mu     sync.RWMutex
	err    error
	offset time.Duration
	addr   string
	inner  inner

	retryInterval time.Duration
}

const defaultRetryInterval = 500 * time.Millisecond

func New(addr string) *NtpTime {
	return newNtpTime(addr, ntpInner{})
}

func newNtpTime(addr string, inner inner) *NtpTime {
	a := &NtpTime{
		addr:          addr,
		inner:         inner,
		retryInterval: defaultRetryInterval,
	}
	_ = a.query()
	return a
}

func (a *NtpTime) query() error {
	tm, err := a.inner.Query(a.addr)
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.err = err
		zap.S().Named("ntp").Warnf("Failed to query NTP server %q: %v", a.addr, err)
		return err
	}
	a.offset = tm.ClockOffset
	a.err = nil
	return nil
}

// Sync repeats the query with exponential backoff until it succeeds,
// retries are exhausted or ctx is done.
func (a *NtpTime) Sync(ctx context.Context, retries uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.retryInterval
	return backoff.Retry(a.query, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}

// Run refreshes the offset every duration until ctx is done.
func (a *NtpTime) Run(ctx context.Context, duration time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(duration):
			_ = a.query()
		}
	}
}

func (a *NtpTime) Now() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return time.Now().Add(a.offset)
}

// Err returns the error of the last query.
func (a *NtpTime) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

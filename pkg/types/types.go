package types

import (
	"time"
)

type Time interface {
	Now() time.Time
}

// SystemTime is the local wall clock.
type SystemTime struct{}

func (SystemTime) Now() time.Time {
	return time.Now()
}

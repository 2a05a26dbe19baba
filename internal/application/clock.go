package application

import "time"

// Clock stamps snapshots and incidents, injectable supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock wall clock in UTC, stored timestamps never carry a zone
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

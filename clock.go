package gopool

import "time"

// Clock is the time source used for task timestamps; tests substitute
// a fixed one.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() RealClock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now() }

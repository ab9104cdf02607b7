package a

import (
	"time"

	clock "time"
)

var timeNow = time.Now

func now() time.Time {
	return timeNow().UTC()
}

func bad() time.Time {
	return time.Now().UTC() // want "time.Now\\(\\) called directly"
}

func badAlias() time.Time {
	return clock.Now() // want "time.Now\\(\\) called directly"
}

type fakeClock struct{}

func (fakeClock) Now() time.Time { return time.Time{} }

func good() time.Time {
	var c fakeClock
	return c.Now()
}

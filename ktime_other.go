//go:build !linux

package main

import "time"

var processStart = time.Now()

// KtimeToTime has no monotonic clock to anchor on here; timestamps are taken
// relative to process start.
func KtimeToTime(tsNs uint64) time.Time {
	return processStart.Add(time.Duration(tsNs))
}

package main

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var (
	offsetOnce       sync.Once
	monoToRealOffset int64
)

// initOffset calculates (CLOCK_REALTIME - CLOCK_MONOTONIC)
func initOffset() {
	var rt unix.Timespec
	var mono unix.Timespec

	_ = unix.ClockGettime(unix.CLOCK_REALTIME, &rt)
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &mono)

	rtNs := int64(rt.Sec)*1_000_000_000 + int64(rt.Nsec)
	monoNs := int64(mono.Sec)*1_000_000_000 + int64(mono.Nsec)

	monoToRealOffset = rtNs - monoNs
}

// KtimeToTime converts a CLOCK_MONOTONIC record timestamp into wall-clock time.Time
func KtimeToTime(tsNs uint64) time.Time {
	offsetOnce.Do(initOffset)
	return time.Unix(0, int64(tsNs)+monoToRealOffset)
}

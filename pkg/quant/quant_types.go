package quant

import (
	"strconv"
	"sync/atomic"
	"time"

	"algotrade/pkg/safe"
)

// TimeStamp represents Unix microseconds, so clocks compare as plain
// int64. The scheduler stamps each background poll with one.
type TimeStamp int64

// Now returns the current time as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMicro())
}

// NextSeq generates the next sequence number atomically.
func NextSeq(ptr *uint64) uint64 {
	return atomic.AddUint64(ptr, 1)
}

// ParseTimeStamp converts a millisecond-epoch string (as most exchange
// APIs report it) into a TimeStamp (microseconds).
func ParseTimeStamp(s string) (TimeStamp, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TimeStamp(safe.SafeMul(ms, 1000)), nil
}

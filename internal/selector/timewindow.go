package selector

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp is a comparable point in time, used to compare TIME command
// windows against miniSEED record timestamps.
type Timestamp struct {
	t time.Time
}

func (a Timestamp) Before(b Timestamp) bool { return a.t.Before(b.t) }
func (a Timestamp) After(b Timestamp) bool  { return a.t.After(b.t) }
func (a Timestamp) Equal(b Timestamp) bool  { return a.t.Equal(b.t) }

// ParseTimeCommand parses the SeedLink TIME argument format
// "YYYY,M,D,h,m,s".
func ParseTimeCommand(s string) (Timestamp, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return Timestamp{}, false
	}
	nums := make([]int, 6)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Timestamp{}, false
		}
		nums[i] = v
	}
	year, month, day, hour, minute, second := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return Timestamp{}, false
	}
	if day > daysInMonth(year, month) {
		return Timestamp{}, false
	}

	return Timestamp{t: time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)}, true
}

// ParseMseedBTime parses a miniSEED v2 BTime from payload bytes 20..30:
// big-endian year (u16), day-of-year (u16), hour, minute, second bytes.
func ParseMseedBTime(payload []byte) (Timestamp, bool) {
	if len(payload) < 30 {
		return Timestamp{}, false
	}
	year := int(payload[20])<<8 | int(payload[21])
	doy := int(payload[22])<<8 | int(payload[23])
	hour := int(payload[24])
	minute := int(payload[25])
	second := int(payload[26])

	if year == 0 || doy == 0 || doy > 366 || hour > 23 || minute > 59 || second > 59 {
		return Timestamp{}, false
	}

	// time.Date normalizes an out-of-range "day of Jan" into the doy-th day of the year.
	t := time.Date(year, time.January, doy, hour, minute, second, 0, time.UTC)
	return Timestamp{t: t}, true
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func daysInMonth(year, month int) int {
	days := [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if month == 2 && isLeap(year) {
		return 29
	}
	return days[month-1]
}

// TimeWindow is a start (inclusive) and optional end (inclusive) bound on
// record timestamps, as requested by the TIME command.
type TimeWindow struct {
	Start Timestamp
	End   Timestamp
	HasEnd bool
}

// ParseTimeWindow parses TIME command arguments. end == "" means open-ended.
func ParseTimeWindow(start, end string) (TimeWindow, bool) {
	startTS, ok := ParseTimeCommand(start)
	if !ok {
		return TimeWindow{}, false
	}
	if end == "" {
		return TimeWindow{Start: startTS}, true
	}
	endTS, ok := ParseTimeCommand(end)
	if !ok {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: startTS, End: endTS, HasEnd: true}, true
}

// Contains reports whether ts falls within the window: start <= ts, and
// ts <= end when an end bound is set.
func (w TimeWindow) Contains(ts Timestamp) bool {
	if ts.Before(w.Start) {
		return false
	}
	if w.HasEnd && ts.After(w.End) {
		return false
	}
	return true
}

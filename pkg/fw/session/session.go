// Package session maps wall-clock time to the domestic fund trading session.
//
// Windows are evaluated on the hour and minute of whatever location the clock
// returns; no exchange timezone conversion is applied.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is the time source. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Phase is the session state at a given instant.
type Phase int

const (
	PreMarket Phase = iota
	Trading
	AfterClose
	OfficialAvailable
)

func (p Phase) String() string {
	switch p {
	case Trading:
		return "trading"
	case AfterClose:
		return "after-close"
	case OfficialAvailable:
		return "official-available"
	default:
		return "pre-market"
	}
}

const (
	morningOpen    = 930
	morningClose   = 1130
	afternoonOpen  = 1300
	afternoonClose = 1500

	closeHour    = 15
	officialHour = 19
)

// IsTradingHours is true on weekdays within [09:30,11:30] or [13:00,15:00].
func IsTradingHours(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	hm := t.Hour()*100 + t.Minute()
	return (hm >= morningOpen && hm <= morningClose) || (hm >= afternoonOpen && hm <= afternoonClose)
}

// IsAfterClose is true for hours in [15,19), on any day.
func IsAfterClose(t time.Time) bool {
	h := t.Hour()
	return h >= closeHour && h < officialHour
}

// IsOfficialAvailable is true from 19:00 on.
func IsOfficialAvailable(t time.Time) bool { return t.Hour() >= officialHour }

// PhaseAt classifies t. At 15:00 exactly both trading and after-close hold;
// trading wins. Times before 15:00 outside the trading windows, including the
// lunch break and weekends, are PreMarket.
func PhaseAt(t time.Time) Phase {
	switch {
	case IsTradingHours(t):
		return Trading
	case IsAfterClose(t):
		return AfterClose
	case IsOfficialAvailable(t):
		return OfficialAvailable
	default:
		return PreMarket
	}
}

// EstimateWindow is true while real-time estimates are meaningful: trading or
// after close.
func EstimateWindow(t time.Time) bool { return IsTradingHours(t) || IsAfterClose(t) }

// StatusLabel renders the freshness annotation for a display record. now is
// the current time; stamp is the record's own timestamp (a date or
// "2006-01-02 15:04" style value) and may be empty.
func StatusLabel(now time.Time, realtime bool, stamp string) string {
	if realtime {
		if IsTradingHours(now) {
			return fmt.Sprintf("实时估算 · %02d:%02d", now.Hour(), now.Minute())
		}
		if IsAfterClose(now) {
			return "收盘估算 · 15:00"
		}
	}
	if m, d, ok := monthDay(stamp); ok {
		return fmt.Sprintf("%d月%d日净值", m, d)
	}
	return "今日净值"
}

// monthDay extracts month and day from a leading YYYY-MM-DD or YYYY/MM/DD.
func monthDay(stamp string) (int, int, bool) {
	stamp = strings.TrimSpace(stamp)
	if len(stamp) < 10 {
		return 0, 0, false
	}
	s := strings.ReplaceAll(stamp[:10], "/", "-")
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, false
	}
	m, err1 := strconv.Atoi(parts[1])
	d, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, false
	}
	return m, d, true
}

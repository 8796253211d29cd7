package session

import (
	"testing"
	"time"
)

// 2024-01-09 is a Tuesday.
func at(day, hour, min int) time.Time {
	return time.Date(2024, time.January, day, hour, min, 0, 0, time.Local)
}

func TestIsTradingHours(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"tuesday 10:00", at(9, 10, 0), true},
		{"tuesday 12:00", at(9, 12, 0), false},
		{"tuesday 09:29", at(9, 9, 29), false},
		{"tuesday 09:30", at(9, 9, 30), true},
		{"tuesday 11:30", at(9, 11, 30), true},
		{"tuesday 11:31", at(9, 11, 31), false},
		{"tuesday 13:00", at(9, 13, 0), true},
		{"tuesday 15:00", at(9, 15, 0), true},
		{"tuesday 15:01", at(9, 15, 1), false},
		{"saturday 10:00", at(13, 10, 0), false},
		{"sunday 14:00", at(14, 14, 0), false},
	}
	for _, tt := range tests {
		if got := IsTradingHours(tt.t); got != tt.want {
			t.Errorf("IsTradingHours(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWindows(t *testing.T) {
	if !IsAfterClose(at(9, 15, 0)) || !IsAfterClose(at(9, 18, 59)) || IsAfterClose(at(9, 19, 0)) {
		t.Errorf("IsAfterClose boundaries wrong")
	}
	if IsOfficialAvailable(at(9, 18, 59)) || !IsOfficialAvailable(at(9, 19, 0)) {
		t.Errorf("IsOfficialAvailable boundaries wrong")
	}
	// after-close does not depend on the weekday
	if !IsAfterClose(at(13, 16, 0)) {
		t.Errorf("IsAfterClose(saturday 16:00) = false, want true")
	}
}

func TestPhaseAt(t *testing.T) {
	tests := []struct {
		t    time.Time
		want Phase
	}{
		{at(9, 8, 0), PreMarket},
		{at(9, 12, 15), PreMarket},
		{at(9, 10, 0), Trading},
		{at(9, 15, 0), Trading},
		{at(9, 16, 30), AfterClose},
		{at(9, 21, 0), OfficialAvailable},
		{at(13, 10, 0), PreMarket},
	}
	for _, tt := range tests {
		if got := PhaseAt(tt.t); got != tt.want {
			t.Errorf("PhaseAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		realtime bool
		stamp    string
		want     string
	}{
		{"realtime trading pads hour", at(9, 9, 35), true, "2024-01-09 09:34", "实时估算 · 09:35"},
		{"realtime after close", at(9, 16, 0), true, "2024-01-09 15:00", "收盘估算 · 15:00"},
		{"realtime outside windows uses stamp date", at(9, 20, 0), true, "2024-01-09 15:00", "1月9日净值"},
		{"official", at(9, 20, 0), false, "2023-12-29", "12月29日净值"},
		{"official slash date", at(9, 20, 0), false, "2023/12/29", "12月29日净值"},
		{"no stamp", at(9, 20, 0), false, "", "今日净值"},
		{"bad stamp", at(9, 20, 0), false, "yesterday", "今日净值"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.now, tt.realtime, tt.stamp); got != tt.want {
			t.Errorf("StatusLabel(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFixedClock(t *testing.T) {
	want := at(9, 10, 0)
	var c Clock = Fixed(want)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Fixed.Now() = %v, want %v", got, want)
	}
}

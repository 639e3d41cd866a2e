package bot

import (
	"testing"
	"time"
)

func TestDailySlotTimes(t *testing.T) {
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.Local)
	times := dailySlotTimes(date)

	wantCount := (slotDayEndHour - slotDayStartHour) * 60 / slotIntervalMinutes
	if len(times) != wantCount {
		t.Fatalf("dailySlotTimes() returned %d slots, want %d", len(times), wantCount)
	}

	first := times[0]
	if first.Hour() != slotDayStartHour || first.Minute() != 0 {
		t.Errorf("first slot = %s, want %02d:00", first.Format("15:04"), slotDayStartHour)
	}

	last := times[len(times)-1]
	if last.Hour() != slotDayEndHour-1 || last.Minute() != 60-slotIntervalMinutes {
		t.Errorf("last slot = %s, want %02d:%02d",
			last.Format("15:04"), slotDayEndHour-1, 60-slotIntervalMinutes)
	}

	for i, ts := range times {
		if ts.Year() != 2026 || ts.Month() != time.September || ts.Day() != 14 {
			t.Errorf("slot %d is on %s, want 14.09.2026", i, ts.Format("02.01.2006"))
		}
		if i > 0 {
			gap := ts.Sub(times[i-1])
			if gap != time.Duration(slotIntervalMinutes)*time.Minute {
				t.Errorf("gap between slot %d and %d = %s, want %dm", i-1, i, gap, slotIntervalMinutes)
			}
		}
	}
}

func TestParseIDFromBrackets(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain label", "Cardiology [5]", 5},
		{"label with parentheses", "Dr. Connor (Cardiology) [12]", 12},
		{"brackets only", "[7]", 7},
		{"last brackets win", "Room [1] desk [2]", 2},
		{"no brackets", "Cardiology", 0},
		{"non numeric id", "Cardiology [abc]", 0},
		{"reversed brackets", "Cardiology ]5[", 0},
		{"empty string", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseIDFromBrackets(tt.text); got != tt.want {
				t.Errorf("parseIDFromBrackets(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseFutureDate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"future date", "24.12.2099", false},
		{"today", time.Now().Format("02.01.2006"), false},
		{"past date", "01.01.2000", true},
		{"iso format", "2099-12-24", true},
		{"garbage", "tomorrow", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFutureDate(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseFutureDate(%q) = %v, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFutureDate(%q) unexpected error: %v", tt.text, err)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("parseFutureDate(%q) = %s, want midnight", tt.text, got.Format("15:04"))
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact stays", "hello", 5, "hello"},
		{"long truncated", "hello world", 8, "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

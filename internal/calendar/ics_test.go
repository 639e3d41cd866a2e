package calendar

import (
	"strings"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{"valid morning", "09:30", 9, 30, false},
		{"valid midnight", "0:00", 0, 0, false},
		{"valid evening", "23:59", 23, 59, false},
		{"hour too large", "24:00", 0, 0, true},
		{"minute too large", "10:60", 0, 0, true},
		{"negative hour", "-1:30", 0, 0, true},
		{"not a time", "noon", 0, 0, true},
		{"empty", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if err == nil && (hour != tt.wantHour || minute != tt.wantMin) {
				t.Errorf("ParseTime(%q) = %d:%d, want %d:%d",
					tt.input, hour, minute, tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("24.12.2026")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if got.Day() != 24 || got.Month() != time.December || got.Year() != 2026 {
		t.Errorf("ParseDate = %v, want 24 December 2026", got)
	}

	if _, err := ParseDate("2026-12-24"); err == nil {
		t.Error("ParseDate accepted ISO format, want error")
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Checkup", "Checkup"},
		{"comma", "Dr. Smith, cardiology", "Dr. Smith\\, cardiology"},
		{"semicolon", "note; urgent", "note\\; urgent"},
		{"newline", "line1\nline2", "line1\\nline2"},
		{"backslash", `a\b`, `a\\b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeICS(tt.input); got != tt.want {
				t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateICS(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	event := Event{
		UID:         "test-uid@medical-bot",
		Summary:     "Appointment with Dr. Smith",
		Description: "Cardiology consultation",
		Location:    "Online",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		Reminder:    60,
	}

	ics := GenerateICS(event)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:test-uid@medical-bot",
		"DTSTART:20260910T140000Z",
		"DTEND:20260910T143000Z",
		"SUMMARY:Appointment with Dr. Smith",
		"TRIGGER:-PT60M",
		"END:VCALENDAR",
	} {
		if !strings.Contains(ics, want) {
			t.Errorf("generated ICS is missing %q", want)
		}
	}

	if !strings.Contains(ics, "\r\n") {
		t.Error("generated ICS does not use CRLF line endings")
	}
}

func TestNewUIDUnique(t *testing.T) {
	a, b := NewUID(), NewUID()
	if a == b {
		t.Errorf("NewUID returned the same value twice: %q", a)
	}
	if !strings.HasSuffix(a, "@medical-bot") {
		t.Errorf("NewUID = %q, want @medical-bot suffix", a)
	}
}

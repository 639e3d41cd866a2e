package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a single calendar entry in the generated .ics file
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Reminder    int // minutes before the event
}

// NewUID returns a globally unique event identifier
func NewUID() string {
	return uuid.NewString() + "@medical-bot"
}

// GenerateICS renders a single-event .ics file
func GenerateICS(event Event) string {
	var sb strings.Builder

	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//MedicalBot//Appointment Calendar//EN\r\n")
	sb.WriteString("CALSCALE:GREGORIAN\r\n")
	sb.WriteString("METHOD:PUBLISH\r\n")

	writeEvent(&sb, event)

	sb.WriteString("END:VCALENDAR\r\n")

	return sb.String()
}

func writeEvent(sb *strings.Builder, event Event) {
	sb.WriteString("BEGIN:VEVENT\r\n")
	sb.WriteString(fmt.Sprintf("UID:%s\r\n", event.UID))
	sb.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(time.Now())))
	sb.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(event.StartTime)))
	sb.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(event.EndTime)))
	sb.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(event.Summary)))

	if event.Description != "" {
		sb.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(event.Description)))
	}
	if event.Location != "" {
		sb.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(event.Location)))
	}

	if event.Reminder > 0 {
		sb.WriteString("BEGIN:VALARM\r\n")
		sb.WriteString("ACTION:DISPLAY\r\n")
		sb.WriteString(fmt.Sprintf("TRIGGER:-PT%dM\r\n", event.Reminder))
		sb.WriteString("DESCRIPTION:Appointment reminder\r\n")
		sb.WriteString("END:VALARM\r\n")
	}

	sb.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a timestamp the way iCalendar wants it
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes characters that are special in iCalendar text values
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// ParseDate parses a date in DD.MM.YYYY form
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse("02.01.2006", dateStr)
}

// ParseTime parses a clock time in HH:MM form
func ParseTime(timeStr string) (hour, minute int, err error) {
	_, err = fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time format, expected HH:MM")
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range")
	}
	return hour, minute, nil
}

// CombineDateTime merges a calendar date with a clock time
func CombineDateTime(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.Local)
}

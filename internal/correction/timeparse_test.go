package correction

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

func anchorDay() time.Time { return time.Date(2026, 10, 19, 8, 45, 12, 345, jst) }

func TestParseTime(t *testing.T) {
	tests := []struct {
		in         string
		hour, min  int
		wantFormat string
	}{
		{"9:30 AM", 9, 30, "9:30 AM"},
		{"09:30 am", 9, 30, "9:30 AM"},
		{"9:30AM", 9, 30, "9:30 AM"},
		{"  5:30 PM  ", 17, 30, "5:30 PM"},
		{"12:00 AM", 0, 0, "12:00 AM"},
		{"12:15 am", 0, 15, "12:15 AM"},
		{"12:00 PM", 12, 0, "12:00 PM"},
		{"12:59 pM", 12, 59, "12:59 PM"},
		{"1:05 PM", 13, 5, "1:05 PM"},
		{"11:59 PM", 23, 59, "11:59 PM"},
	}
	anchor := anchorDay()
	for _, tt := range tests {
		got, err := ParseTime(tt.in, anchor)
		if err != nil {
			t.Errorf("ParseTime(%q) err = %v", tt.in, err)
			continue
		}
		if got.Hour() != tt.hour || got.Minute() != tt.min || got.Second() != 0 || got.Nanosecond() != 0 {
			t.Errorf("ParseTime(%q) = %v, want %02d:%02d:00", tt.in, got, tt.hour, tt.min)
		}
		if y, m, d := got.Date(); y != 2026 || m != time.October || d != 19 {
			t.Errorf("ParseTime(%q) date = %v, want anchor day", tt.in, got)
		}
		if got.Location() != jst {
			t.Errorf("ParseTime(%q) location = %v, want anchor location", tt.in, got.Location())
		}
		// round-trip
		if f := FormatTime(got); f != tt.wantFormat {
			t.Errorf("FormatTime(ParseTime(%q)) = %q, want %q", tt.in, f, tt.wantFormat)
		}
		back, err := ParseTime(FormatTime(got), anchor)
		if err != nil || !back.Equal(got) {
			t.Errorf("round-trip %q: %v, %v", tt.in, back, err)
		}
	}
}

func TestParseTimeRejects(t *testing.T) {
	tests := []struct {
		in   string
		rule Rule
	}{
		{"", RuleEmptyInput},
		{"   ", RuleEmptyInput},
		{"\t\n", RuleEmptyInput},
		{"25:00", RuleInvalidFormat},
		{"9:30", RuleInvalidFormat},
		{"noon", RuleInvalidFormat},
		{"13:00 PM", RuleInvalidFormat},
		{"0:30 AM", RuleInvalidFormat},
		{"00:30 AM", RuleInvalidFormat},
		{"9:60 AM", RuleInvalidFormat},
		{"9:5 AM", RuleInvalidFormat},
		{"9.30 AM", RuleInvalidFormat},
		{"9:30  AM", RuleInvalidFormat},
		{"9:30\tAM", RuleInvalidFormat},
		{"9:30\nAM", RuleInvalidFormat},
		{"9:30\u00a0AM", RuleInvalidFormat},
		{"9:30 A.M.", RuleInvalidFormat},
		{"9:30 AM tomorrow", RuleInvalidFormat},
		{"at 9:30 AM", RuleInvalidFormat},
		{"17:30", RuleInvalidFormat},
		{"９:30 AM", RuleInvalidFormat},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in, anchorDay())
		if err == nil {
			t.Errorf("ParseTime(%q) = %v, want error", tt.in, got)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ParseTime(%q) err type = %T", tt.in, err)
			continue
		}
		if verr.Rule != tt.rule {
			t.Errorf("ParseTime(%q) rule = %s, want %s", tt.in, verr.Rule, tt.rule)
		}
		if !got.IsZero() {
			t.Errorf("ParseTime(%q) returned a timestamp with the error", tt.in)
		}
	}
}

func TestParseTimeFormatMessage(t *testing.T) {
	_, err := ParseTime("17:30", anchorDay())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	for _, want := range []string{"H:MM AM/PM", "9:30 AM"} {
		if !strings.Contains(verr.Message, want) {
			t.Errorf("message %q does not mention %q", verr.Message, want)
		}
	}
}

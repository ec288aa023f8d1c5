package correction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeLayout は 12 時間表記の表示形式（例 "9:30 AM"）
const TimeLayout = "3:04 PM"

const timeFormatHint = `expected "H:MM AM/PM" (e.g. "9:30 AM")`

// 時 1-12（先頭0可）、分 00-59、AM/PM は大小文字を問わず、間の空白は1つまで
var time12h = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5][0-9]) ?([AaPp][Mm])$`)

// ParseTime は 12 時間表記の時刻を anchor の暦日（anchor の Location）に載せて返す。
// 時計は読まない。秒以下は 0。
func ParseTime(text string, anchor time.Time) (time.Time, error) {
	t, verr := parseTime(text, anchor)
	if verr != nil {
		return time.Time{}, verr
	}
	return t, nil
}

func parseTime(text string, anchor time.Time) (time.Time, *ValidationError) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, invalid(RuleEmptyInput, "time is required")
	}
	m := time12h.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, invalid(RuleInvalidFormat, "invalid time "+strconv.Quote(s)+", "+timeFormatHint)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	// 12 AM -> 0, 12 PM -> 12, PM はそれ以外 +12
	pm := strings.EqualFold(m[3], "PM")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}

	y, mo, d := anchor.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, anchor.Location()), nil
}

// FormatTime は ParseTime の逆。"09:05 am" -> "9:05 AM"
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

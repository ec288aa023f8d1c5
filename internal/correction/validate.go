package correction

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinJustificationLength = 10
	MaxJustificationLength = 500
	MinJustificationWords  = 3
	MaxShiftDuration       = 24 * time.Hour
)

// ValidateJustification は最初に失敗したルールだけを返す。
// 順序: 必須 → 最短 → 最長 → 同一文字の繰り返し → 単語数
func ValidateJustification(text string) *ValidationError {
	s := norm.NFC.String(strings.TrimSpace(text))
	if s == "" {
		return invalid(RuleRequired, "justification is required")
	}
	n := utf8.RuneCountInString(s)
	if n < MinJustificationLength {
		return invalid(RuleTooShort, "justification must be at least 10 characters")
	}
	if n > MaxJustificationLength {
		return invalid(RuleTooLong, "justification must be at most 500 characters")
	}
	if isRepeatedRune(s) {
		return invalid(RuleNotMeaningful, "justification must describe the reason, not repeat one character")
	}
	if len(strings.Fields(s)) < MinJustificationWords {
		return invalid(RuleTooFewWords, "justification must contain at least 3 words")
	}
	return nil
}

// "aaaaaaaaaa" のように全体が1文字の繰り返し
func isRepeatedRune(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	for _, r := range s {
		if r != first {
			return false
		}
	}
	return utf8.RuneCountInString(s) >= MinJustificationLength
}

// ValidateTimeField: 空欄は「変更しない」なので (nil, nil)
func ValidateTimeField(text string, anchor time.Time) (*time.Time, *ValidationError) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	t, verr := parseTime(text, anchor)
	if verr != nil {
		return nil, verr
	}
	return &t, nil
}

// CheckConsistency は両方の時刻が解決できたときだけ呼ぶ
func CheckConsistency(checkIn, checkOut time.Time) *ValidationError {
	if !checkOut.After(checkIn) {
		return invalid(RuleCheckOutNotAfterCheckIn, "check-out time must be after check-in time")
	}
	if checkOut.Sub(checkIn) > MaxShiftDuration {
		return invalid(RuleDurationExceeds24h, "a shift cannot exceed 24 hours")
	}
	return nil
}

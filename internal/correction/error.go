package correction

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Validation errors =====

// Field はフォーム上の入力欄
type Field string

const (
	FieldCheckIn       Field = "check_in"
	FieldCheckOut      Field = "check_out"
	FieldJustification Field = "justification"
)

// Rule は検証失敗の種類。クライアントはこれで表示を出し分ける。
type Rule string

const (
	// parser
	RuleEmptyInput    Rule = "EMPTY_INPUT"
	RuleInvalidFormat Rule = "INVALID_FORMAT"
	// justification
	RuleRequired      Rule = "REQUIRED"
	RuleTooShort      Rule = "TOO_SHORT"
	RuleTooLong       Rule = "TOO_LONG"
	RuleNotMeaningful Rule = "NOT_MEANINGFUL"
	RuleTooFewWords   Rule = "TOO_FEW_WORDS"
	// whole form
	RuleCheckOutNotAfterCheckIn Rule = "CHECKOUT_NOT_AFTER_CHECKIN"
	RuleDurationExceeds24h      Rule = "DURATION_EXCEEDS_24H"
	RuleOverlap                 Rule = "OVERLAP"
	RuleNoTimeField             Rule = "NO_TIME_FIELD"
)

// ValidationError は入力の誤り。panic も throw もせず値として返す。
type ValidationError struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Rule, e.Message) }

func invalid(rule Rule, msg string) *ValidationError {
	return &ValidationError{Rule: rule, Message: msg}
}

// ===== Submission errors =====

// SubmissionKind: 送信先（レビューワークフロー）の失敗分類
type SubmissionKind string

const (
	SubmissionNotFound  SubmissionKind = "NOT_FOUND"
	SubmissionConflict  SubmissionKind = "CONFLICT"
	SubmissionTransient SubmissionKind = "TRANSIENT"
	SubmissionFatal     SubmissionKind = "FATAL"
)

// SubmissionError は自動リトライしない。Transient ならユーザが再送できる。
type SubmissionError struct {
	Kind    SubmissionKind
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("submission %s: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ===== API error model (attendance と同型) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// RejectedError: 検証で弾かれた提出。Outcome をそのまま返す。
type RejectedError struct {
	Outcome Outcome
}

func (e *RejectedError) Error() string { return "correction rejected by validation" }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeUnprocessable:
			return http.StatusUnprocessableEntity
		case CodeUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		return http.StatusUnprocessableEntity
	}
	var sub *SubmissionError
	if errors.As(err, &sub) {
		switch sub.Kind {
		case SubmissionNotFound:
			return http.StatusNotFound
		case SubmissionConflict:
			return http.StatusConflict
		case SubmissionTransient:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

package correction

import (
	"time"

	"attendance-backend/internal/attendance"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200

	DecisionApprove = "approve"
	DecisionReject  = "reject"

	MaxReviewNoteLength = 1000
)

// POST /corrections, /corrections/check
type CheckRequest struct {
	SessionID     uint64 `json:"session_id" binding:"required"`
	CheckIn       string `json:"check_in"`  // "9:30 AM"、空欄は変更なし
	CheckOut      string `json:"check_out"` // 同上
	Justification string `json:"justification"`
}

// POST /corrections/check-field（入力中の1欄だけ）
type CheckFieldRequest struct {
	SessionID uint64 `json:"session_id" binding:"required"`
	Field     string `json:"field" binding:"required,oneof=check_in check_out justification"`
	Value     string `json:"value"`
}

type FieldCheckResponse struct {
	Field Field            `json:"field"`
	Valid bool             `json:"valid"`
	Error *ValidationError `json:"error,omitempty"`
}

type OutcomeResponse struct {
	Submittable         bool                         `json:"submittable"`
	FieldErrors         map[Field]*ValidationError   `json:"field_errors"`
	GeneralError        *ValidationError             `json:"general_error,omitempty"`
	ConflictingSessions []attendance.SessionResponse `json:"conflicting_sessions"`
	ResolvedCheckIn     *time.Time                   `json:"resolved_check_in,omitempty"`
	ResolvedCheckOut    *time.Time                   `json:"resolved_check_out,omitempty"`
}

func (o Outcome) ToResponse() OutcomeResponse {
	res := OutcomeResponse{
		Submittable:         o.Submittable(),
		FieldErrors:         o.FieldErrors,
		GeneralError:        o.GeneralError,
		ConflictingSessions: make([]attendance.SessionResponse, 0, len(o.ConflictingSessions)),
		ResolvedCheckIn:     o.ResolvedCheckIn,
		ResolvedCheckOut:    o.ResolvedCheckOut,
	}
	if res.FieldErrors == nil {
		res.FieldErrors = map[Field]*ValidationError{}
	}
	for _, c := range o.ConflictingSessions {
		res.ConflictingSessions = append(res.ConflictingSessions, c.ToResponse())
	}
	return res
}

type RequestResponse struct {
	CorrectionID  string     `json:"correction_id"`
	SessionID     uint64     `json:"session_id"`
	UserID        string     `json:"user_id"`
	WorkDate      string     `json:"work_date"`
	CheckInTime   time.Time  `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty"`
	CorrectsIn    bool       `json:"corrects_check_in"`
	CorrectsOut   bool       `json:"corrects_check_out"`
	Justification string     `json:"justification"`
	Status        Status     `json:"status"`
	ReviewedBy    *string    `json:"reviewed_by,omitempty"`
	ReviewNote    *string    `json:"review_note,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GET /corrections, /corrections/pending
type ListQuery struct {
	UserID string `form:"-"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// POST /corrections/:id/review
type ReviewRequest struct {
	Decision string  `json:"decision" binding:"required,oneof=approve reject"`
	Note     *string `json:"note,omitempty"`
}

type listFilter struct {
	UserID    string
	Status    Status
	SessionID uint64
	Limit     int
	Offset    int
}

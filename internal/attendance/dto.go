package attendance

import "time"

const (
	SortCheckInDesc  = "check_in_desc"
	SortCheckInAsc   = "check_in_asc"
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	DefaultSort      = SortCheckInDesc
	DateLayout       = "2006-01-02"
	MaxAgendaLength  = 2000
)

type CheckInRequest struct {
	Agenda *string `json:"agenda,omitempty"`
}

type UpdateAgendaRequest struct {
	Agenda *string `json:"agenda"`
}

type SessionResponse struct {
	SessionID       uint64     `json:"session_id"`
	UserID          string     `json:"user_id"`
	WorkDate        string     `json:"work_date"` // YYYY-MM-DD
	CheckInTime     time.Time  `json:"check_in_time"`
	CheckOutTime    *time.Time `json:"check_out_time,omitempty"`
	DurationMinutes *int64     `json:"duration_minutes,omitempty"`
	Agenda          *string    `json:"agenda,omitempty"`
	Open            bool       `json:"open"`
}

// GET /attendance/sessions のクエリ
type ListQuery struct {
	UserID string `form:"-"`
	From   string `form:"from" binding:"omitempty,ymd"` // YYYY-MM-DD（含む）
	To     string `form:"to" binding:"omitempty,ymd"`   // YYYY-MM-DD（含む）
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Sort   string `form:"sort"`
}

// store 向けに解決済みの範囲（UTC, 半開区間）
type listFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
	Sort   string
}

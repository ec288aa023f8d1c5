package attendance

import (
	"database/sql"
	"time"
)

// DB行に対応（スキャン用）
type sessionRow struct {
	SessionID  uint64
	UserID     string
	CheckInAt  time.Time
	CheckOutAt sql.NullTime
	Agenda     sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session は1回の出勤〜退勤。CheckOutTime が nil なら勤務中。
type Session struct {
	ID           uint64
	UserID       string
	CheckInTime  time.Time
	CheckOutTime *time.Time
	Agenda       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r sessionRow) toModel() Session {
	s := Session{
		ID:          r.SessionID,
		UserID:      r.UserID,
		CheckInTime: r.CheckInAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.CheckOutAt.Valid {
		out := r.CheckOutAt.Time.UTC()
		s.CheckOutTime = &out
	}
	if r.Agenda.Valid {
		v := r.Agenda.String
		s.Agenda = &v
	}
	return s
}

func (s Session) IsOpen() bool { return s.CheckOutTime == nil }

// In は時刻を loc に揃えたコピーを返す。暦日の判定は必ずこれを通してから行う。
func (s Session) In(loc *time.Location) Session {
	out := s
	out.CheckInTime = s.CheckInTime.In(loc)
	if s.CheckOutTime != nil {
		t := s.CheckOutTime.In(loc)
		out.CheckOutTime = &t
	}
	out.CreatedAt = s.CreatedAt.In(loc)
	out.UpdatedAt = s.UpdatedAt.In(loc)
	return out
}

// WorkDate は出勤時刻の暦日（Session の Location 基準）
func (s Session) WorkDate() string {
	return s.CheckInTime.Format(DateLayout)
}

func (s Session) ToResponse() SessionResponse {
	res := SessionResponse{
		SessionID:    s.ID,
		UserID:       s.UserID,
		WorkDate:     s.WorkDate(),
		CheckInTime:  s.CheckInTime,
		CheckOutTime: s.CheckOutTime,
		Agenda:       s.Agenda,
		Open:         s.IsOpen(),
	}
	if s.CheckOutTime != nil {
		m := int64(s.CheckOutTime.Sub(s.CheckInTime) / time.Minute)
		res.DurationMinutes = &m
	}
	return res
}

package correction

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Request はレビュー待ち（または処理済み）の修正申請
type Request struct {
	ID            string
	SessionID     uint64
	UserID        string
	WorkDate      string
	CheckIn       time.Time
	CheckOut      *time.Time
	CorrectsIn    bool
	CorrectsOut   bool
	Justification string
	Status        Status
	ReviewedBy    *string
	ReviewNote    *string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
}

// Apply は申請で直した項目だけを現在のセッション時刻に重ねる
func (m Request) Apply(checkIn time.Time, checkOut *time.Time) (time.Time, *time.Time) {
	if m.CorrectsIn {
		checkIn = m.CheckIn
	}
	if m.CorrectsOut && m.CheckOut != nil {
		t := *m.CheckOut
		checkOut = &t
	}
	return checkIn, checkOut
}

// Ack は送信先が受け付けた証跡
type Ack struct {
	CorrectionID string
	Status       Status
	CreatedAt    time.Time
}

type requestRow struct {
	CorrectionID  string
	SessionID     uint64
	UserID        string
	WorkDate      string
	CheckInAt     time.Time
	CheckOutAt    sql.NullTime
	CorrectsIn    bool
	CorrectsOut   bool
	Justification string
	Status        string
	ReviewedBy    sql.NullString
	ReviewNote    sql.NullString
	ReviewedAt    sql.NullTime
	CreatedAt     time.Time
}

func (r requestRow) toModel() Request {
	m := Request{
		ID:            r.CorrectionID,
		SessionID:     r.SessionID,
		UserID:        r.UserID,
		WorkDate:      r.WorkDate,
		CheckIn:       r.CheckInAt.UTC(),
		CorrectsIn:    r.CorrectsIn,
		CorrectsOut:   r.CorrectsOut,
		Justification: r.Justification,
		Status:        Status(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.CheckOutAt.Valid {
		t := r.CheckOutAt.Time.UTC()
		m.CheckOut = &t
	}
	if r.ReviewedBy.Valid {
		v := r.ReviewedBy.String
		m.ReviewedBy = &v
	}
	if r.ReviewNote.Valid {
		v := r.ReviewNote.String
		m.ReviewNote = &v
	}
	if r.ReviewedAt.Valid {
		t := r.ReviewedAt.Time.UTC()
		m.ReviewedAt = &t
	}
	return m
}

func (m Request) ToResponse(loc *time.Location) RequestResponse {
	res := RequestResponse{
		CorrectionID:  m.ID,
		SessionID:     m.SessionID,
		UserID:        m.UserID,
		WorkDate:      m.WorkDate,
		CheckInTime:   m.CheckIn.In(loc),
		CorrectsIn:    m.CorrectsIn,
		CorrectsOut:   m.CorrectsOut,
		Justification: m.Justification,
		Status:        m.Status,
		ReviewedBy:    m.ReviewedBy,
		ReviewNote:    m.ReviewNote,
		CreatedAt:     m.CreatedAt.In(loc),
	}
	if m.CheckOut != nil {
		t := m.CheckOut.In(loc)
		res.CheckOutTime = &t
	}
	if m.ReviewedAt != nil {
		t := m.ReviewedAt.In(loc)
		res.ReviewedAt = &t
	}
	return res
}

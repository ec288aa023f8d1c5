package correction

import (
	"fmt"
	"strings"
	"time"

	"attendance-backend/internal/attendance"
)

const msgNoTimeField = "at least one time field required"

// Proposal は1回の編集で入力された修正案。空欄の時刻は「元の値のまま」。
type Proposal struct {
	Base          attendance.Session
	CheckInText   string
	CheckOutText  string
	Justification string
}

// 出勤は元の出勤日に、退勤は元の退勤日（勤務中なら出勤日）に載せる
func (p Proposal) checkInAnchor() time.Time { return p.Base.CheckInTime }

func (p Proposal) checkOutAnchor() time.Time {
	if p.Base.CheckOutTime != nil {
		return *p.Base.CheckOutTime
	}
	return p.Base.CheckInTime
}

func (p Proposal) hasTimeField() bool {
	return strings.TrimSpace(p.CheckInText) != "" || strings.TrimSpace(p.CheckOutText) != ""
}

// Outcome は検証結果。エラーは全て値で返る。
type Outcome struct {
	FieldErrors         map[Field]*ValidationError
	GeneralError        *ValidationError
	ConflictingSessions []attendance.Session
	ResolvedCheckIn     *time.Time
	ResolvedCheckOut    *time.Time
}

// Submittable: フィールドエラー無し、全体エラー無し（時刻が1つも無い場合も全体エラー）
func (o Outcome) Submittable() bool {
	return len(o.FieldErrors) == 0 && o.GeneralError == nil
}

// Validate は提出前の完全な検証。sessions は同じユーザの全セッション。
func Validate(p Proposal, sessions []attendance.Session) Outcome {
	o := Outcome{
		FieldErrors:         map[Field]*ValidationError{},
		ConflictingSessions: []attendance.Session{},
	}

	in, verr := ValidateTimeField(p.CheckInText, p.checkInAnchor())
	if verr != nil {
		o.FieldErrors[FieldCheckIn] = verr
	}
	out, verr := ValidateTimeField(p.CheckOutText, p.checkOutAnchor())
	if verr != nil {
		o.FieldErrors[FieldCheckOut] = verr
	}
	o.ResolvedCheckIn, o.ResolvedCheckOut = in, out

	if verr := ValidateJustification(p.Justification); verr != nil {
		o.FieldErrors[FieldJustification] = verr
	}

	if !p.hasTimeField() {
		o.GeneralError = invalid(RuleNoTimeField, msgNoTimeField)
		return o
	}
	if in == nil || out == nil {
		return o
	}

	// 整合性NGなら重複チェックはしない
	if verr := CheckConsistency(*in, *out); verr != nil {
		o.GeneralError = verr
		return o
	}
	if conflicts := FindOverlaps(in, out, p.Base.ID, sessions); len(conflicts) > 0 {
		o.ConflictingSessions = conflicts
		o.GeneralError = overlapError(conflicts[0], in.Location())
	}
	return o
}

func overlapError(c attendance.Session, loc *time.Location) *ValidationError {
	in := c.CheckInTime.In(loc)
	out := c.CheckOutTime.In(loc)
	msg := fmt.Sprintf("overlaps with an existing session on %s (%s - %s)",
		in.Format(attendance.DateLayout), FormatTime(in), FormatTime(out))
	return invalid(RuleOverlap, msg)
}

// Record はレビューに回す修正内容。
// CheckIn/CheckOut は表示用に元の値で埋めるが、承認時に書き戻すのは Corrects* が立っている方だけ。
type Record struct {
	SessionID        uint64
	UserID           string
	WorkDate         string
	CheckIn          time.Time
	CheckOut         *time.Time
	CorrectsCheckIn  bool
	CorrectsCheckOut bool
	Justification    string
}

// Assemble は Submittable な Outcome からだけ Record を作る。
// 空欄だった時刻は元のセッションの値を引き継ぐ。
func Assemble(p Proposal, o Outcome) (Record, error) {
	if !o.Submittable() {
		return Record{}, &RejectedError{Outcome: o}
	}
	rec := Record{
		SessionID:     p.Base.ID,
		UserID:        p.Base.UserID,
		WorkDate:      p.Base.WorkDate(),
		CheckIn:       p.Base.CheckInTime,
		CheckOut:      p.Base.CheckOutTime,
		Justification: strings.TrimSpace(p.Justification),
	}
	if o.ResolvedCheckIn != nil {
		rec.CheckIn = *o.ResolvedCheckIn
		rec.CorrectsCheckIn = true
	}
	if o.ResolvedCheckOut != nil {
		out := *o.ResolvedCheckOut
		rec.CheckOut = &out
		rec.CorrectsCheckOut = true
	}
	return rec, nil
}

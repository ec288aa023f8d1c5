package correction

import (
	"context"
	"errors"
	"testing"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/platform/db/dbtest"
)

type testEnv struct {
	svc      *Service
	sessions *attendance.Service
	base     uint64
	other    uint64
}

// e01: 10/19 09:00-18:00（編集対象）と 10/20 09:00-18:00
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	as := attendance.NewStore(conn)
	base := seedSession(t, as, "e01", at(19, 9, 0), at(19, 18, 0))
	other := seedSession(t, as, "e01", at(20, 9, 0), at(20, 18, 0))

	sessions := attendance.NewService(conn, jst)
	svc := NewService(conn, sessions, jst).WithClock(&fixedClock{t: at(21, 10, 0)})
	svc.store.ids = &seqIDs{}
	return testEnv{svc: svc, sessions: sessions, base: base, other: other}
}

func TestServiceCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Check(ctx, "e01", CheckRequest{SessionID: env.base, CheckIn: "9:30 AM", CheckOut: "5:30 PM", Justification: okReason})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Submittable || len(res.FieldErrors) != 0 {
		t.Errorf("outcome = %+v", res)
	}

	// 10/20 のセッションの修正は 10/19 のセッションと比較しない
	res, err = env.svc.Check(ctx, "e01", CheckRequest{SessionID: env.other, CheckIn: "9:00 AM", CheckOut: "5:00 PM", Justification: okReason})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Submittable {
		t.Errorf("different day should not conflict: %+v", res.GeneralError)
	}

	if _, err := env.svc.Check(ctx, "e02", CheckRequest{SessionID: env.base}); toHTTPStatus(err) != 404 {
		t.Errorf("other user's session err = %v, want not found", err)
	}
	if _, err := env.svc.Check(ctx, "e01", CheckRequest{SessionID: 999}); toHTTPStatus(err) != 404 {
		t.Errorf("missing session err = %v, want not found", err)
	}
}

func TestServiceCheckOverlapWithSeededSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	extra := seedSession(t, attendance.NewStore(env.svc.db), "e01", at(19, 19, 0), at(19, 21, 0))

	res, err := env.svc.Check(ctx, "e01", CheckRequest{SessionID: env.base, CheckIn: "9:00 AM", CheckOut: "7:30 PM", Justification: okReason})
	if err != nil {
		t.Fatal(err)
	}
	if res.Submittable || res.GeneralError == nil || res.GeneralError.Rule != RuleOverlap {
		t.Fatalf("outcome = %+v", res)
	}
	if len(res.ConflictingSessions) != 1 || res.ConflictingSessions[0].SessionID != extra {
		t.Errorf("conflicts = %+v", res.ConflictingSessions)
	}
}

func TestServiceCheckField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.CheckField(ctx, "e01", CheckFieldRequest{SessionID: env.base, Field: "check_out", Value: "5:30"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || res.Error == nil || res.Error.Rule != RuleInvalidFormat {
		t.Errorf("check_out = %+v", res)
	}
	res, err = env.svc.CheckField(ctx, "e01", CheckFieldRequest{SessionID: env.base, Field: "justification", Value: okReason})
	if err != nil || !res.Valid {
		t.Errorf("justification = %+v, %v", res, err)
	}
	if _, err := env.svc.CheckField(ctx, "e01", CheckFieldRequest{SessionID: env.base, Field: "agenda"}); toHTTPStatus(err) != 400 {
		t.Errorf("unknown field err = %v, want invalid", err)
	}
}

func TestServiceSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := CheckRequest{SessionID: env.base, CheckOut: "5:30 PM", Justification: okReason}

	res, err := env.svc.Submit(ctx, "e01", req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != StatusPending || res.WorkDate != "2026-10-19" {
		t.Errorf("response = %+v", res)
	}
	// 出勤欄は空欄なので元の 09:00
	if !res.CheckInTime.Equal(at(19, 9, 0)) || res.CheckOutTime == nil || !res.CheckOutTime.Equal(at(19, 17, 30)) {
		t.Errorf("times = %v / %v", res.CheckInTime, res.CheckOutTime)
	}
	if res.CorrectsIn || !res.CorrectsOut {
		t.Errorf("corrects in/out = %v/%v, want false/true", res.CorrectsIn, res.CorrectsOut)
	}

	if _, err := env.svc.Submit(ctx, "e01", req); toHTTPStatus(err) != 409 {
		t.Errorf("second Submit err = %v, want conflict", err)
	}

	got, err := env.svc.Get(ctx, "e01", false, res.CorrectionID)
	if err != nil || got.CorrectionID != res.CorrectionID {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := env.svc.Get(ctx, "e02", false, res.CorrectionID); toHTTPStatus(err) != 404 {
		t.Errorf("Get by other user err = %v, want not found", err)
	}
	if _, err := env.svc.Get(ctx, "hr01", true, res.CorrectionID); err != nil {
		t.Errorf("Get by hr err = %v", err)
	}
}

func TestServiceSubmitRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Submit(context.Background(), "e01", CheckRequest{SessionID: env.base, Justification: "ok"})
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want RejectedError", err)
	}
	if toHTTPStatus(err) != 422 {
		t.Errorf("status = %d, want 422", toHTTPStatus(err))
	}
	if rej.Outcome.FieldErrors[FieldJustification] == nil || rej.Outcome.GeneralError == nil {
		t.Errorf("outcome = %+v", rej.Outcome)
	}
}

type failingSink struct {
	err   error
	calls int
}

func (s *failingSink) SubmitCorrection(context.Context, Record) (Ack, error) {
	s.calls++
	return Ack{}, s.err
}

func TestServiceSubmitSinkFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := CheckRequest{SessionID: env.base, CheckIn: "9:30 AM", Justification: okReason}

	tests := []struct {
		kind SubmissionKind
		want int
	}{
		{SubmissionTransient, 503},
		{SubmissionNotFound, 404},
		{SubmissionConflict, 409},
		{SubmissionFatal, 500},
	}
	for _, tt := range tests {
		sink := &failingSink{err: &SubmissionError{Kind: tt.kind, Message: "x"}}
		_, err := env.svc.WithSink(sink).Submit(ctx, "e01", req)
		if toHTTPStatus(err) != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.kind, toHTTPStatus(err), tt.want)
		}
		if sink.calls != 1 {
			t.Errorf("%s: sink called %d times, want 1", tt.kind, sink.calls)
		}
	}

	// 失敗後も再送できる
	if _, err := env.svc.Submit(ctx, "e01", req); err != nil {
		t.Errorf("resubmit: %v", err)
	}
}

func TestServiceReviewApprove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub, err := env.svc.Submit(ctx, "e01", CheckRequest{SessionID: env.base, CheckIn: "9:30 AM", CheckOut: "5:30 PM", Justification: okReason})
	if err != nil {
		t.Fatal(err)
	}

	pending, total, err := env.svc.Pending(ctx, ListQuery{})
	if err != nil || total != 1 || pending[0].CorrectionID != sub.CorrectionID {
		t.Fatalf("Pending = %+v, %d, %v", pending, total, err)
	}

	res, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionApprove})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if res.Status != StatusApproved || res.ReviewedBy == nil || *res.ReviewedBy != "hr01" || res.ReviewedAt == nil {
		t.Errorf("response = %+v", res)
	}

	s, err := env.sessions.GetSession(ctx, env.base)
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckInTime.Equal(at(19, 9, 30)) || s.CheckOutTime == nil || !s.CheckOutTime.Equal(at(19, 17, 30)) {
		t.Errorf("session times = %v / %v", s.CheckInTime, s.CheckOutTime)
	}

	if _, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionApprove}); toHTTPStatus(err) != 409 {
		t.Errorf("second Review err = %v, want conflict", err)
	}
	if _, total, _ := env.svc.Pending(ctx, ListQuery{}); total != 0 {
		t.Errorf("pending after review = %d", total)
	}
}

// 出勤だけ直した申請のあとに退勤打刻があっても、承認で退勤が消えない
func TestServiceReviewApproveKeepsUncorrectedField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	open, err := env.sessions.WithClock(&fixedClock{t: at(22, 9, 0)}).CheckIn(ctx, "e01", attendance.CheckInRequest{})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	sub, err := env.svc.Submit(ctx, "e01", CheckRequest{SessionID: open.SessionID, CheckIn: "8:30 AM", Justification: okReason})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.sessions.WithClock(&fixedClock{t: at(22, 18, 0)}).CheckOut(ctx, "e01"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	if _, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionApprove}); err != nil {
		t.Fatalf("Review: %v", err)
	}
	s, err := env.sessions.GetSession(ctx, open.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckInTime.Equal(at(22, 8, 30)) {
		t.Errorf("check-in = %v, want 08:30", s.CheckInTime)
	}
	if s.CheckOutTime == nil || !s.CheckOutTime.Equal(at(22, 18, 0)) {
		t.Errorf("check-out = %v, want 18:00 kept", s.CheckOutTime)
	}
}

// 承認時の整合チェックは、直した出勤と現在の退勤を合わせた組で行う
func TestServiceReviewApproveChecksMergedTimes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	open, err := env.sessions.WithClock(&fixedClock{t: at(22, 9, 0)}).CheckIn(ctx, "e01", attendance.CheckInRequest{})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := env.svc.Submit(ctx, "e01", CheckRequest{SessionID: open.SessionID, CheckIn: "11:00 AM", Justification: okReason})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.sessions.WithClock(&fixedClock{t: at(22, 10, 30)}).CheckOut(ctx, "e01"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionApprove}); toHTTPStatus(err) != 422 {
		t.Fatalf("Review err = %v, want unprocessable", err)
	}
	// ロールバックされて申請も PENDING のまま
	got, _ := env.svc.Get(ctx, "e01", false, sub.CorrectionID)
	if got.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
	s, _ := env.sessions.GetSession(ctx, open.SessionID)
	if !s.CheckInTime.Equal(at(22, 9, 0)) || s.CheckOutTime == nil || !s.CheckOutTime.Equal(at(22, 10, 30)) {
		t.Errorf("session times = %v / %v", s.CheckInTime, s.CheckOutTime)
	}
}

// interleavedSink は自分の書き込みの直前に、同じセッションへの別の送信を割り込ませる
type interleavedSink struct {
	inner  Sink
	before func()
}

func (s *interleavedSink) SubmitCorrection(ctx context.Context, rec Record) (Ack, error) {
	if f := s.before; f != nil {
		s.before = nil
		f()
	}
	return s.inner.SubmitCorrection(ctx, rec)
}

func TestServiceSubmitConcurrentSameSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := CheckRequest{SessionID: env.base, CheckIn: "9:30 AM", Justification: okReason}

	var interleavedErr error
	sink := &interleavedSink{inner: env.svc.store, before: func() {
		_, interleavedErr = env.svc.Submit(ctx, "e01", req)
	}}
	_, err := env.svc.WithSink(sink).Submit(ctx, "e01", req)
	if interleavedErr != nil {
		t.Fatalf("interleaved Submit: %v", interleavedErr)
	}
	if toHTTPStatus(err) != 409 {
		t.Errorf("losing Submit err = %v, want conflict", err)
	}
	if _, total, _ := env.svc.Pending(ctx, ListQuery{}); total != 1 {
		t.Errorf("pending for one session = %d, want 1", total)
	}
}

func TestServiceReviewReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub, err := env.svc.Submit(ctx, "e01", CheckRequest{SessionID: env.base, CheckIn: "9:30 AM", Justification: okReason})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionReject}); toHTTPStatus(err) != 400 {
		t.Errorf("reject without note err = %v, want invalid", err)
	}
	note := "  badge log shows 9:00  "
	res, err := env.svc.Review(ctx, "hr01", sub.CorrectionID, ReviewRequest{Decision: DecisionReject, Note: &note})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if res.Status != StatusRejected || res.ReviewNote == nil || *res.ReviewNote != "badge log shows 9:00" {
		t.Errorf("response = %+v", res)
	}

	// 却下ではセッションは変わらない
	s, _ := env.sessions.GetSession(ctx, env.base)
	if !s.CheckInTime.Equal(at(19, 9, 0)) {
		t.Errorf("session check-in changed to %v", s.CheckInTime)
	}

	if _, err := env.svc.Review(ctx, "hr01", "missing", ReviewRequest{Decision: DecisionApprove}); toHTTPStatus(err) != 404 {
		t.Errorf("missing correction err = %v, want not found", err)
	}
}

func TestServiceList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, sid := range []uint64{env.base, env.other} {
		if _, err := env.svc.Submit(ctx, "e01", CheckRequest{SessionID: sid, CheckIn: "9:30 AM", Justification: okReason}); err != nil {
			t.Fatal(err)
		}
	}
	items, total, err := env.svc.List(ctx, ListQuery{UserID: "e01"})
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("List = %d items, total %d, %v", len(items), total, err)
	}
	if _, total, _ := env.svc.List(ctx, ListQuery{UserID: "e02"}); total != 0 {
		t.Errorf("List e02 total = %d", total)
	}
}

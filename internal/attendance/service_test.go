package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"attendance-backend/internal/platform/db/dbtest"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *fixedClock) {
	t.Helper()
	conn := dbtest.Open(t)
	clk := &fixedClock{t: time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC)}
	tokyo := time.FixedZone("JST", 9*60*60)
	return NewService(conn, tokyo).WithClock(clk), clk
}

func TestCheckInCheckOut(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	agenda := "  design review  "
	in, err := svc.CheckIn(ctx, "e01", CheckInRequest{Agenda: &agenda})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if !in.Open {
		t.Error("CheckIn: session should be open")
	}
	if in.Agenda == nil || *in.Agenda != "design review" {
		t.Errorf("CheckIn agenda = %v, want trimmed", in.Agenda)
	}
	// 00:30 UTC は JST で 09:30 なので勤務日は当日
	if in.WorkDate != "2026-10-19" {
		t.Errorf("WorkDate = %q, want 2026-10-19", in.WorkDate)
	}

	if _, err := svc.CheckIn(ctx, "e01", CheckInRequest{}); toHTTPStatus(err) != 409 {
		t.Errorf("double CheckIn err = %v, want conflict", err)
	}

	clk.t = clk.t.Add(8 * time.Hour)
	out, err := svc.CheckOut(ctx, "e01")
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if out.Open || out.CheckOutTime == nil {
		t.Fatal("CheckOut: session should be closed")
	}
	if out.DurationMinutes == nil || *out.DurationMinutes != 480 {
		t.Errorf("DurationMinutes = %v, want 480", out.DurationMinutes)
	}

	if _, err := svc.CheckOut(ctx, "e01"); !IsNotFound(err) {
		t.Errorf("CheckOut without open session err = %v, want not found", err)
	}
}

func TestListSessionsSnapshot(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CheckIn(ctx, "e01", CheckInRequest{}); err != nil {
			t.Fatalf("CheckIn %d: %v", i, err)
		}
		clk.t = clk.t.Add(2 * time.Hour)
		if _, err := svc.CheckOut(ctx, "e01"); err != nil {
			t.Fatalf("CheckOut %d: %v", i, err)
		}
		clk.t = clk.t.Add(22 * time.Hour)
	}
	if _, err := svc.CheckIn(ctx, "e02", CheckInRequest{}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ListSessions(ctx, "e01")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListSessions len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].CheckInTime.After(got[i-1].CheckInTime) {
			t.Errorf("ListSessions not ordered by check-in at %d", i)
		}
	}
	if got[0].CheckInTime.Location() != svc.Location() {
		t.Errorf("ListSessions location = %v, want %v", got[0].CheckInTime.Location(), svc.Location())
	}
}

func TestListPaging(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.CheckIn(ctx, "e01", CheckInRequest{}); err != nil {
			t.Fatal(err)
		}
		clk.t = clk.t.Add(time.Hour)
		if _, err := svc.CheckOut(ctx, "e01"); err != nil {
			t.Fatal(err)
		}
		clk.t = clk.t.Add(23 * time.Hour)
	}

	items, total, err := svc.List(ctx, ListQuery{UserID: "e01", Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("List total=%d len=%d, want 5/2", total, len(items))
	}
	if items[0].WorkDate != "2026-10-23" {
		t.Errorf("newest first: got %s", items[0].WorkDate)
	}

	items, total, err = svc.List(ctx, ListQuery{UserID: "e01", From: "2026-10-20", To: "2026-10-21", Sort: SortCheckInAsc})
	if err != nil {
		t.Fatalf("List range: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("List range total=%d len=%d, want 2/2", total, len(items))
	}
	if items[0].WorkDate != "2026-10-20" || items[1].WorkDate != "2026-10-21" {
		t.Errorf("List range dates = %s, %s", items[0].WorkDate, items[1].WorkDate)
	}

	if _, _, err := svc.List(ctx, ListQuery{UserID: "e01", From: "2026-10-21", To: "2026-10-20"}); toHTTPStatus(err) != 400 {
		t.Errorf("inverted range err = %v, want invalid", err)
	}
}

func TestOwnSessionAndAgenda(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in, err := svc.CheckIn(ctx, "e01", CheckInRequest{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetOwnSession(ctx, "e02", in.SessionID); !IsNotFound(err) {
		t.Errorf("other user's session err = %v, want not found", err)
	}
	agenda := "1on1, sprint planning"
	res, err := svc.UpdateAgenda(ctx, "e01", in.SessionID, UpdateAgendaRequest{Agenda: &agenda})
	if err != nil {
		t.Fatalf("UpdateAgenda: %v", err)
	}
	if res.Agenda == nil || *res.Agenda != agenda {
		t.Errorf("agenda = %v", res.Agenda)
	}
	got, err := svc.GetOwnSession(ctx, "e01", in.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Agenda == nil || *got.Agenda != agenda {
		t.Errorf("stored agenda = %v", got.Agenda)
	}
}

func TestStoreUpdateTimes(t *testing.T) {
	conn := dbtest.Open(t)
	st := NewStore(conn)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	id, err := st.Insert(ctx, Session{UserID: "e01", CheckInTime: at, CreatedAt: at, UpdatedAt: at})
	if err != nil {
		t.Fatal(err)
	}
	in := at.Add(30 * time.Minute)
	out := at.Add(9 * time.Hour)
	if err := st.UpdateTimes(ctx, id, in, &out, at); err != nil {
		t.Fatalf("UpdateTimes: %v", err)
	}
	got, err := st.GetByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CheckInTime.Equal(in) || got.CheckOutTime == nil || !got.CheckOutTime.Equal(out) {
		t.Errorf("times = %v / %v", got.CheckInTime, got.CheckOutTime)
	}
	if err := st.UpdateTimes(ctx, 999, in, &out, at); !IsNotFound(err) {
		t.Errorf("UpdateTimes missing err = %v, want not found", err)
	}
}

type noRowsAffected struct{ err error }

func (r noRowsAffected) LastInsertId() (int64, error) { return 0, r.err }
func (r noRowsAffected) RowsAffected() (int64, error) { return 0, r.err }

// execOnlyDB は Exec は通るが件数を返せないドライバの代わり
type execOnlyDB struct{ err error }

func (d execOnlyDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return noRowsAffected{err: d.err}, nil
}
func (d execOnlyDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, d.err
}
func (d execOnlyDB) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }

func TestStoreRowsAffectedError(t *testing.T) {
	boom := errors.New("rows affected not supported")
	st := NewStore(execOnlyDB{err: boom})
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	agenda := "standup"

	tests := []struct {
		name string
		run  func() error
	}{
		{"MarkCheckedOut", func() error { return st.MarkCheckedOut(ctx, 1, at) }},
		{"UpdateTimes", func() error { return st.UpdateTimes(ctx, 1, at, nil, at) }},
		{"UpdateAgenda", func() error { return st.UpdateAgenda(ctx, 1, &agenda, at) }},
	}
	for _, tt := range tests {
		err := tt.run()
		if !errors.Is(err, boom) {
			t.Errorf("%s: err = %v, want driver error", tt.name, err)
		}
		if IsNotFound(err) || toHTTPStatus(err) == 409 {
			t.Errorf("%s: driver error reported as %d", tt.name, toHTTPStatus(err))
		}
	}
}

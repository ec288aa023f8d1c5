package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-backend/internal/platform/db"
)

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

const sessionColumns = `session_id, user_id, check_in_at, check_out_at, agenda, created_at, updated_at`

func scanSession(sc interface{ Scan(dest ...any) error }) (Session, error) {
	var r sessionRow
	if err := sc.Scan(&r.SessionID, &r.UserID, &r.CheckInAt, &r.CheckOutAt, &r.Agenda, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Session{}, err
	}
	return r.toModel(), nil
}

// Insert: 新規セッション。戻り値は採番された session_id
func (s *Store) Insert(ctx context.Context, m Session) (uint64, error) {
	const q = `
	INSERT INTO attendance_sessions (user_id, check_in_at, check_out_at, agenda, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		m.UserID,
		m.CheckInTime.UTC(),
		timeOrNil(m.CheckOutTime),
		strOrNil(m.Agenda),
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (s *Store) GetByID(ctx context.Context, id uint64) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE session_id = ?`, id)
	out, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound("session not found")
	}
	return out, err
}

// FindOpen: 退勤していない最新セッション。無ければ nil
func (s *Store) FindOpen(ctx context.Context, userID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+sessionColumns+`
	FROM attendance_sessions
	WHERE user_id = ? AND check_out_at IS NULL
	ORDER BY check_in_at DESC, session_id DESC
	LIMIT 1`, userID)
	out, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkCheckedOut: 勤務中のセッションだけを閉じる。既に閉じていれば Conflict
func (s *Store) MarkCheckedOut(ctx context.Context, id uint64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE attendance_sessions
	SET check_out_at = ?, updated_at = ?
	WHERE session_id = ? AND check_out_at IS NULL`, at.UTC(), at.UTC(), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff != 1 {
		return ErrConflict("session already checked out")
	}
	return nil
}

// UpdateTimes: 修正承認時に出勤・退勤時刻を差し替える
func (s *Store) UpdateTimes(ctx context.Context, id uint64, checkIn time.Time, checkOut *time.Time, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE attendance_sessions
	SET check_in_at = ?, check_out_at = ?, updated_at = ?
	WHERE session_id = ?`, checkIn.UTC(), timeOrNil(checkOut), at.UTC(), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff != 1 {
		return ErrNotFound("session not found")
	}
	return nil
}

func (s *Store) UpdateAgenda(ctx context.Context, id uint64, agenda *string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE attendance_sessions
	SET agenda = ?, updated_at = ?
	WHERE session_id = ?`, strOrNil(agenda), at.UTC(), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff != 1 {
		return ErrNotFound("session not found")
	}
	return nil
}

// ListByUser: 重複チェック用の全件スナップショット（出勤時刻昇順）
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT `+sessionColumns+`
	FROM attendance_sessions
	WHERE user_id = ?
	ORDER BY check_in_at ASC, session_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// List: 条件に応じて動的WHERE + ORDER + LIMIT/OFFSET
func (s *Store) List(ctx context.Context, f listFilter) ([]Session, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`SELECT ` + sessionColumns + ` FROM attendance_sessions`)
	if f.UserID != "" {
		wheres = append(wheres, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.From != nil {
		wheres = append(wheres, "check_in_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		wheres = append(wheres, "check_in_at < ?")
		args = append(args, f.To.UTC())
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}

	switch f.Sort {
	case SortCheckInAsc:
		buf.WriteString(" ORDER BY check_in_at ASC, session_id ASC")
	default:
		buf.WriteString(" ORDER BY check_in_at DESC, session_id DESC")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// COUNT（ORDER BY より前までを再構築）
	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM attendance_sessions")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ===== helpers =====

func strOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

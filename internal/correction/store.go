package correction

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"

	"attendance-backend/internal/platform/db"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Store は correction_requests の永続化。SubmitCorrection でレビューの送信先（Sink）も兼ねる。
type Store struct {
	db    db.DBTX
	clock Clock
	ids   IDGen
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn, clock: realClock{}, ids: ulidGen{}}
}

const requestColumns = `correction_id, session_id, user_id, work_date, check_in_at, check_out_at,
	corrects_check_in, corrects_check_out,
	justification, status, reviewed_by, review_note, reviewed_at, created_at`

func scanRequest(sc interface{ Scan(dest ...any) error }) (Request, error) {
	var r requestRow
	err := sc.Scan(&r.CorrectionID, &r.SessionID, &r.UserID, &r.WorkDate, &r.CheckInAt, &r.CheckOutAt,
		&r.CorrectsIn, &r.CorrectsOut, &r.Justification, &r.Status, &r.ReviewedBy, &r.ReviewNote, &r.ReviewedAt, &r.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return r.toModel(), nil
}

// SubmitCorrection は Record を PENDING で登録する。失敗は *SubmissionError で返す。
func (s *Store) SubmitCorrection(ctx context.Context, rec Record) (Ack, error) {
	id, err := s.ids.New()
	if err != nil {
		return Ack{}, &SubmissionError{Kind: SubmissionFatal, Message: "failed to issue correction id", Err: err}
	}
	now := s.clock.Now().UTC().Truncate(time.Second)
	r := Request{
		ID:            id,
		SessionID:     rec.SessionID,
		UserID:        rec.UserID,
		WorkDate:      rec.WorkDate,
		CheckIn:       rec.CheckIn,
		CheckOut:      rec.CheckOut,
		CorrectsIn:    rec.CorrectsCheckIn,
		CorrectsOut:   rec.CorrectsCheckOut,
		Justification: rec.Justification,
		Status:        StatusPending,
		CreatedAt:     now,
	}
	if err := s.Insert(ctx, r); err != nil {
		return Ack{}, classifySubmitError(err)
	}
	return Ack{CorrectionID: id, Status: StatusPending, CreatedAt: now}, nil
}

func (s *Store) Insert(ctx context.Context, r Request) error {
	const q = `
	INSERT INTO correction_requests
	(correction_id, session_id, user_id, work_date, check_in_at, check_out_at,
	 corrects_check_in, corrects_check_out, justification, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		r.ID,
		r.SessionID,
		r.UserID,
		r.WorkDate,
		r.CheckIn.UTC(),
		timeOrNil(r.CheckOut),
		r.CorrectsIn,
		r.CorrectsOut,
		r.Justification,
		string(r.Status),
		r.CreatedAt.UTC(),
	)
	return err
}

// sqliteUniqueViolation は SQLITE_CONSTRAINT_UNIQUE（開発・テスト用の sqlite）
const sqliteUniqueViolation = 2067

// classifySubmitError はドライバのエラーを NotFound / Conflict / Transient / Fatal に振り分ける
func classifySubmitError(err error) *SubmissionError {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // uq_corrections_pending
			return &SubmissionError{Kind: SubmissionConflict, Message: "a correction for this session is already pending review", Err: err}
		case 1452: // foreign key constraint fails
			return &SubmissionError{Kind: SubmissionNotFound, Message: "session no longer exists", Err: err}
		case 1213, 1205: // deadlock / lock wait timeout
			return &SubmissionError{Kind: SubmissionTransient, Message: "review queue is busy, please resubmit", Err: err}
		}
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code() == sqliteUniqueViolation {
		return &SubmissionError{Kind: SubmissionConflict, Message: "a correction for this session is already pending review", Err: err}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return &SubmissionError{Kind: SubmissionTransient, Message: "review queue is unavailable, please resubmit", Err: err}
	}
	return &SubmissionError{Kind: SubmissionFatal, Message: "failed to submit correction", Err: err}
}

func (s *Store) GetByID(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM correction_requests WHERE correction_id = ?`, id)
	out, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound("correction not found")
	}
	return out, err
}

// HasPending: 同じセッションに未処理の申請があるか
func (s *Store) HasPending(ctx context.Context, sessionID uint64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM correction_requests
	WHERE session_id = ? AND status = ?`, sessionID, string(StatusPending)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateReview: PENDING のものだけ確定する。処理済みなら Conflict
func (s *Store) UpdateReview(ctx context.Context, id string, st Status, reviewer string, note *string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE correction_requests
	SET status = ?, reviewed_by = ?, review_note = ?, reviewed_at = ?
	WHERE correction_id = ? AND status = ?`,
		string(st), reviewer, strOrNil(note), at.UTC(), id, string(StatusPending))
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff != 1 {
		return ErrConflict("correction already reviewed")
	}
	return nil
}

// List: 新しい順。UserID/Status/SessionID は指定時のみ絞り込む
func (s *Store) List(ctx context.Context, f listFilter) ([]Request, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)
	buf.WriteString(`SELECT ` + requestColumns + ` FROM correction_requests`)
	if f.UserID != "" {
		wheres = append(wheres, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		wheres = append(wheres, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.SessionID != 0 {
		wheres = append(wheres, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	buf.WriteString(" ORDER BY created_at DESC, correction_id DESC")

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

	var out []Request
	for rows.Next() {
		m, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM correction_requests")
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

package correction

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/platform/db"
)

// SessionSource は編集対象と重複チェック用のセッションを供給する（attendance.Service）
type SessionSource interface {
	GetSession(ctx context.Context, id uint64) (attendance.Session, error)
	ListSessions(ctx context.Context, userID string) ([]attendance.Session, error)
}

// Sink はレビューワークフローへの送信先。自動リトライはしない。
type Sink interface {
	SubmitCorrection(ctx context.Context, rec Record) (Ack, error)
}

type Service struct {
	db       *sql.DB
	store    *Store
	sessions SessionSource
	sink     Sink
	clock    Clock
	loc      *time.Location
}

func NewService(conn *sql.DB, sessions SessionSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	st := NewStore(conn)
	return &Service{
		db:       conn,
		store:    st,
		sessions: sessions,
		sink:     st,
		clock:    realClock{},
		loc:      loc,
	}
}

// WithClock はテスト用。store（= 既定の Sink）の時計も差し替える
func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	st := *s.store
	st.clock = c
	cp.store = &st
	if s.sink == Sink(s.store) {
		cp.sink = &st
	}
	return &cp
}

func (s *Service) WithSink(k Sink) *Service {
	cp := *s
	cp.sink = k
	return &cp
}

// 本人のセッションと、重複チェック用の全セッションを読む
func (s *Service) loadProposal(ctx context.Context, userID string, sessionID uint64) (attendance.Session, []attendance.Session, error) {
	base, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if attendance.IsNotFound(err) {
			return attendance.Session{}, nil, ErrNotFound("session not found")
		}
		return attendance.Session{}, nil, err
	}
	if base.UserID != userID {
		return attendance.Session{}, nil, ErrNotFound("session not found")
	}
	all, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return attendance.Session{}, nil, err
	}
	return base, all, nil
}

func toProposal(base attendance.Session, in CheckRequest) Proposal {
	return Proposal{
		Base:          base,
		CheckInText:   in.CheckIn,
		CheckOutText:  in.CheckOut,
		Justification: in.Justification,
	}
}

// POST /corrections/check（提出せずに検証だけ）
func (s *Service) Check(ctx context.Context, userID string, in CheckRequest) (OutcomeResponse, error) {
	base, all, err := s.loadProposal(ctx, userID, in.SessionID)
	if err != nil {
		return OutcomeResponse{}, err
	}
	return Validate(toProposal(base, in), all).ToResponse(), nil
}

// POST /corrections/check-field
func (s *Service) CheckField(ctx context.Context, userID string, in CheckFieldRequest) (FieldCheckResponse, error) {
	field, ok := ParseField(in.Field)
	if !ok {
		return FieldCheckResponse{}, ErrInvalid("field must be check_in, check_out or justification")
	}
	base, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		if attendance.IsNotFound(err) {
			return FieldCheckResponse{}, ErrNotFound("session not found")
		}
		return FieldCheckResponse{}, err
	}
	if base.UserID != userID {
		return FieldCheckResponse{}, ErrNotFound("session not found")
	}

	f := NewForm(base)
	f.Change(field, in.Value)
	f.Blur(field)
	verr := f.Error(field)
	return FieldCheckResponse{Field: field, Valid: verr == nil, Error: verr}, nil
}

// POST /corrections
func (s *Service) Submit(ctx context.Context, userID string, in CheckRequest) (RequestResponse, error) {
	base, all, err := s.loadProposal(ctx, userID, in.SessionID)
	if err != nil {
		return RequestResponse{}, err
	}
	p := toProposal(base, in)
	rec, err := Assemble(p, Validate(p, all))
	if err != nil {
		return RequestResponse{}, err
	}

	// 先に軽く弾く。同時送信は uq_corrections_pending が SubmissionConflict にする
	pending, err := s.store.HasPending(ctx, rec.SessionID)
	if err != nil {
		return RequestResponse{}, err
	}
	if pending {
		return RequestResponse{}, ErrConflict("a correction for this session is already pending review")
	}

	ack, err := s.sink.SubmitCorrection(ctx, rec)
	if err != nil {
		return RequestResponse{}, err
	}
	r := Request{
		ID:            ack.CorrectionID,
		SessionID:     rec.SessionID,
		UserID:        rec.UserID,
		WorkDate:      rec.WorkDate,
		CheckIn:       rec.CheckIn,
		CheckOut:      rec.CheckOut,
		CorrectsIn:    rec.CorrectsCheckIn,
		CorrectsOut:   rec.CorrectsCheckOut,
		Justification: rec.Justification,
		Status:        ack.Status,
		CreatedAt:     ack.CreatedAt,
	}
	return r.ToResponse(s.loc), nil
}

// GET /corrections（本人分）, GET /corrections/pending（HR）
func (s *Service) List(ctx context.Context, q ListQuery) ([]RequestResponse, int64, error) {
	f := listFilter{UserID: q.UserID, Status: Status(q.Status), Limit: q.Limit, Offset: q.Offset}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	rows, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]RequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToResponse(s.loc))
	}
	return out, total, nil
}

func (s *Service) Pending(ctx context.Context, q ListQuery) ([]RequestResponse, int64, error) {
	q.UserID = ""
	q.Status = string(StatusPending)
	return s.List(ctx, q)
}

// GET /corrections/:id  本人か HR だけが見られる
func (s *Service) Get(ctx context.Context, userID string, isHR bool, id string) (RequestResponse, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}
	if !isHR && r.UserID != userID {
		return RequestResponse{}, ErrNotFound("correction not found")
	}
	return r.ToResponse(s.loc), nil
}

// POST /corrections/:id/review
// 承認時は申請の時刻をセッションに反映する。申請の状態更新と同一トランザクション。
func (s *Service) Review(ctx context.Context, reviewer string, id string, in ReviewRequest) (RequestResponse, error) {
	var st Status
	switch in.Decision {
	case DecisionApprove:
		st = StatusApproved
	case DecisionReject:
		st = StatusRejected
	default:
		return RequestResponse{}, ErrInvalid("decision must be approve or reject")
	}
	note := in.Note
	if note != nil {
		v := strings.TrimSpace(*note)
		if utf8.RuneCountInString(v) > MaxReviewNoteLength {
			return RequestResponse{}, ErrInvalid("note is too long")
		}
		note = &v
	}
	if st == StatusRejected && (note == nil || *note == "") {
		return RequestResponse{}, ErrInvalid("note is required when rejecting")
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		cs := NewStore(tx)
		r, err := cs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusPending {
			return ErrConflict("correction already reviewed")
		}
		if st == StatusApproved {
			as := attendance.NewStore(tx)
			cur, err := as.GetByID(ctx, r.SessionID)
			if err != nil {
				if attendance.IsNotFound(err) {
					return ErrNotFound("session not found")
				}
				return err
			}
			// 申請で直していない項目は今のセッションの値を残す（申請後の退勤打刻など）
			in, out := r.Apply(cur.CheckInTime, cur.CheckOutTime)
			if out != nil {
				if verr := CheckConsistency(in, *out); verr != nil {
					return &APIError{Code: CodeUnprocessable, Message: verr.Message}
				}
			}
			if err := as.UpdateTimes(ctx, r.SessionID, in, out, now); err != nil {
				if attendance.IsNotFound(err) {
					return ErrNotFound("session not found")
				}
				return err
			}
		}
		return cs.UpdateReview(ctx, id, st, reviewer, note, now)
	})
	if err != nil {
		return RequestResponse{}, err
	}

	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}
	return r.ToResponse(s.loc), nil
}

package attendance

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	loc   *time.Location
}

// loc は業務上の暦日を決めるタイムゾーン（config.timezone）
func NewService(conn *sql.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: conn, store: NewStore(conn), clock: realClock{}, loc: loc}
}

// WithClock はテスト用に時計を差し替えたコピーを返す
func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

func (s *Service) Location() *time.Location { return s.loc }

// POST /attendance/check-in
func (s *Service) CheckIn(ctx context.Context, userID string, in CheckInRequest) (SessionResponse, error) {
	if userID == "" {
		return SessionResponse{}, ErrInvalid("user_id is required")
	}
	agenda, err := normalizeAgenda(in.Agenda)
	if err != nil {
		return SessionResponse{}, err
	}

	open, err := s.store.FindOpen(ctx, userID)
	if err != nil {
		return SessionResponse{}, err
	}
	if open != nil {
		return SessionResponse{}, ErrConflict("already checked in; check out first")
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	m := Session{
		UserID:      userID,
		CheckInTime: now,
		Agenda:      agenda,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.store.Insert(ctx, m)
	if err != nil {
		return SessionResponse{}, err
	}
	m.ID = id
	return m.In(s.loc).ToResponse(), nil
}

// POST /attendance/check-out
func (s *Service) CheckOut(ctx context.Context, userID string) (SessionResponse, error) {
	if userID == "" {
		return SessionResponse{}, ErrInvalid("user_id is required")
	}
	open, err := s.store.FindOpen(ctx, userID)
	if err != nil {
		return SessionResponse{}, err
	}
	if open == nil {
		return SessionResponse{}, ErrNotFound("no open session to check out")
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	if !now.After(open.CheckInTime) {
		return SessionResponse{}, ErrConflict("check-out must be after check-in")
	}
	if err := s.store.MarkCheckedOut(ctx, open.ID, now); err != nil {
		return SessionResponse{}, err
	}
	open.CheckOutTime = &now
	open.UpdatedAt = now
	return open.In(s.loc).ToResponse(), nil
}

// GetSession は業務タイムゾーンに揃えた Session を返す
func (s *Service) GetSession(ctx context.Context, id uint64) (Session, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return m.In(s.loc), nil
}

// ListSessions はユーザの全セッション（重複チェック用スナップショット）
func (s *Service) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.In(s.loc))
	}
	return out, nil
}

// GET /attendance/sessions/:id（本人のみ）
func (s *Service) GetOwnSession(ctx context.Context, userID string, id uint64) (SessionResponse, error) {
	m, err := s.GetSession(ctx, id)
	if err != nil {
		return SessionResponse{}, err
	}
	if m.UserID != userID {
		// 他人のセッションは存在しない扱い
		return SessionResponse{}, ErrNotFound("session not found")
	}
	return m.ToResponse(), nil
}

// GET /attendance/sessions
func (s *Service) List(ctx context.Context, q ListQuery) ([]SessionResponse, int64, error) {
	f := listFilter{UserID: q.UserID, Limit: q.Limit, Offset: q.Offset, Sort: q.Sort}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if q.From != "" {
		from, err := time.ParseInLocation(DateLayout, q.From, s.loc)
		if err != nil {
			return nil, 0, ErrInvalid("from must be YYYY-MM-DD")
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := time.ParseInLocation(DateLayout, q.To, s.loc)
		if err != nil {
			return nil, 0, ErrInvalid("to must be YYYY-MM-DD")
		}
		// to は当日を含むので翌日0時未満
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return nil, 0, ErrInvalid("to must be >= from")
	}

	rows, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SessionResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].In(s.loc).ToResponse())
	}
	return out, total, nil
}

// PUT /attendance/sessions/:id/agenda
func (s *Service) UpdateAgenda(ctx context.Context, userID string, id uint64, in UpdateAgendaRequest) (SessionResponse, error) {
	agenda, err := normalizeAgenda(in.Agenda)
	if err != nil {
		return SessionResponse{}, err
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return SessionResponse{}, err
	}
	if m.UserID != userID {
		return SessionResponse{}, ErrNotFound("session not found")
	}
	now := s.clock.Now().UTC().Truncate(time.Second)
	if err := s.store.UpdateAgenda(ctx, id, agenda, now); err != nil {
		return SessionResponse{}, err
	}
	m.Agenda = agenda
	m.UpdatedAt = now
	return m.In(s.loc).ToResponse(), nil
}

func normalizeAgenda(a *string) (*string, error) {
	if a == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*a)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > MaxAgendaLength {
		return nil, ErrInvalid("agenda is too long")
	}
	return &v, nil
}

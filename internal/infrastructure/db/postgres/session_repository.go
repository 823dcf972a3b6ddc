package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

const sessionColumns = `id, user_id, session_token, login_timestamp, last_activity, ip_address,
	user_agent, is_active, expires_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s      domain.Session
		id     int64
		ip, ua sql.NullString
	)
	if err := row.Scan(&id, &s.UserID, &s.Token, &s.LoginAt, &s.LastActivity, &ip, &ua, &s.IsActive, &s.ExpiresAt); err != nil {
		return nil, err
	}
	s.ID = strconv.FormatInt(id, 10)
	s.IPAddress = ip.String
	s.UserAgent = ua.String
	s.LoginAt = s.LoginAt.UTC()
	s.LastActivity = s.LastActivity.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

func (r *SessionRepository) Insert(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO user_sessions (user_id, session_token, login_timestamp, last_activity,
			ip_address, user_agent, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Token, s.LoginAt, s.LastActivity,
		nullString(s.IPAddress), nullString(s.UserAgent), s.IsActive, s.ExpiresAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	s.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *SessionRepository) FindActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE session_token = $1 AND is_active
		LIMIT 1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	id, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil {
		return domain.ErrSessionNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE user_sessions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRow(res, domain.ErrSessionNotFound)
}

func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET last_activity = $2 WHERE session_token = $1 AND is_active`,
		token, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRow(res, domain.ErrSessionNotFound)
}

func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE is_active AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_id = $1
		ORDER BY login_timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/infrastructure/metrics"
)

// DefaultTokenLifetime is one week, the lifetime used when none is configured.
const DefaultTokenLifetime = 10080 * time.Minute

const tokenType = "bearer"

// AuthConfig is the immutable configuration of the authentication core.
type AuthConfig struct {
	Secret        string
	Audience      string
	TokenLifetime time.Duration
	// EnforceSessions makes Authenticate reject tokens whose session was
	// logged out. When false the ledger is written for audit only.
	EnforceSessions bool
}

// ActivityRecorder receives the token of every successfully authenticated
// request so the session's last_activity can be updated off the request path.
type ActivityRecorder interface {
	Enqueue(token string)
}

// AuthOption customises optional collaborators of AuthService.
type AuthOption func(*AuthService)

func WithClock(c Clock) AuthOption { return func(s *AuthService) { s.clock = c } }

func WithHasher(h PasswordHasher) AuthOption { return func(s *AuthService) { s.hasher = h } }

func WithRevocations(r ports.RevocationStore) AuthOption {
	return func(s *AuthService) { s.revocations = r }
}

func WithActivityRecorder(a ActivityRecorder) AuthOption {
	return func(s *AuthService) { s.activity = a }
}

// AuthService implements registration, login, request authentication,
// role gating and logout.
type AuthService struct {
	cfg         AuthConfig
	users       ports.UserRepository
	sessions    ports.SessionRepository
	codec       *TokenCodec
	hasher      PasswordHasher
	clock       Clock
	revocations ports.RevocationStore
	activity    ActivityRecorder
	log         zerolog.Logger

	// dummyHash is compared against on unknown identifiers so both failure
	// paths of Login cost one hash comparison.
	dummyHash string
}

func NewAuthService(
	cfg AuthConfig,
	users ports.UserRepository,
	sessions ports.SessionRepository,
	log zerolog.Logger,
	opts ...AuthOption,
) (*AuthService, error) {
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = DefaultTokenLifetime
	}

	s := &AuthService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		hasher:   NewBcryptHasher(0),
		clock:    SystemClock(),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}

	codec, err := NewTokenCodec(cfg.Secret, cfg.Audience, s.clock)
	if err != nil {
		return nil, err
	}
	s.codec = codec

	dummy, err := s.hasher.Hash("grademind-unknown-user")
	if err != nil {
		return nil, err
	}
	s.dummyHash = dummy

	return s, nil
}

// Codec exposes the token codec, mainly for tests and tooling.
func (s *AuthService) Codec() *TokenCodec { return s.codec }

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PublicUser, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	fullname := strings.TrimSpace(in.Fullname)
	if email == "" || username == "" || in.Password == "" || fullname == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: email, username, password and fullname are required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	user := &domain.User{
		Email:          email,
		Username:       username,
		PasswordHash:   hash,
		Role:           role,
		IsActive:       true,
		IsVerified:     false,
		IsSuperuser:    false,
		CreatedAt:      s.clock.Now(),
		Fullname:       fullname,
		Phone:          strings.TrimSpace(in.Phone),
		NRP:            strings.TrimSpace(in.NRP),
		Institution:    strings.TrimSpace(in.Institution),
		Biography:      in.Biography,
		ProfilePicture: strings.TrimSpace(in.ProfilePicture),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrStorageConflict) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("username", username).Msg("failed to create user")
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.resolve(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Compare(s.dummyHash, in.Password)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrAccountInactive
	}

	now := s.clock.Now()
	token, err := s.codec.IssueAt(user.ID, now, s.cfg.TokenLifetime)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	session := &domain.Session{
		UserID:       user.ID,
		Token:        token,
		LoginAt:      now,
		LastActivity: now,
		IPAddress:    in.IPAddress,
		UserAgent:    in.UserAgent,
		IsActive:     true,
		ExpiresAt:    now.Add(s.cfg.TokenLifetime),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: record session: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID).Str("ip", in.IPAddress).Msg("user logged in")

	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   tokenType,
		User:        user.Public(),
	}, nil
}

// resolve looks the identifier up as an email first, then as a username.
func (s *AuthService) resolve(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.users.FindByUsername(ctx, identifier)
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", domain.ErrMissingCredentials
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], tokenType) {
		return "", domain.ErrMalformedHeader
	}
	return parts[1], nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		metrics.AuthenticationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrMissingCredentials
	}

	userID, err := s.codec.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			metrics.AuthenticationsTotal.WithLabelValues("expired").Inc()
			return nil, domain.ErrTokenExpired
		}
		metrics.AuthenticationsTotal.WithLabelValues("invalid").Inc()
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthenticationsTotal.WithLabelValues("user_not_found").Inc()
			return nil, domain.ErrUserNotFound
		}
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !user.IsActive {
		metrics.AuthenticationsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrAccountInactive
	}

	if s.cfg.EnforceSessions {
		if err := s.checkSession(ctx, token); err != nil {
			if errors.Is(err, domain.ErrSessionRevoked) {
				metrics.AuthenticationsTotal.WithLabelValues("revoked").Inc()
			} else {
				metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
			}
			return nil, err
		}
	}

	if s.activity != nil {
		s.activity.Enqueue(token)
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	return user, nil
}

// checkSession rejects tokens that were logged out. A denylist hit short
// circuits; otherwise the session ledger decides, since a missing Redis key
// (failed write, flush, eviction) must not resurrect a logged-out token.
func (s *AuthService) checkSession(ctx context.Context, token string) error {
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, token)
		if err != nil {
			s.log.Warn().Err(err).Msg("revocation check failed, falling back to session ledger")
		} else if revoked {
			return domain.ErrSessionRevoked
		}
	}

	if _, err := s.sessions.FindActiveByToken(ctx, token); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrSessionRevoked
		}
		return fmt.Errorf("authenticate: session lookup: %w", err)
	}
	return nil
}

// RequireRole is the role gate: it succeeds iff user holds role.
func RequireRole(user *domain.User, role domain.Role) error {
	if user == nil || user.Role != role {
		return &domain.ForbiddenError{Role: role}
	}
	return nil
}

// Logout marks the token's session inactive and denylists the token until it
// expires. It never reports failure; problems are logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		metrics.LogoutsTotal.WithLabelValues("not_found").Inc()
		return
	}

	session, err := s.sessions.FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			metrics.LogoutsTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.LogoutsTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Msg("logout: session lookup failed")
		}
		return
	}

	if err := s.sessions.Deactivate(ctx, session.ID); err != nil {
		metrics.LogoutsTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("logout: deactivate failed")
		return
	}

	if s.revocations != nil {
		if ttl := session.ExpiresAt.Sub(s.clock.Now()); ttl > 0 {
			if err := s.revocations.Revoke(ctx, token, ttl); err != nil {
				s.log.Warn().Err(err).Str("session_id", session.ID).Msg("logout: denylist write failed")
			}
		}
	}

	metrics.LogoutsTotal.WithLabelValues("revoked").Inc()
	s.log.Info().Int64("user_id", session.UserID).Str("session_id", session.ID).Msg("user logged out")
}

// Sessions lists the login history of userID, newest first.
func (s *AuthService) Sessions(ctx context.Context, userID int64) ([]*domain.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

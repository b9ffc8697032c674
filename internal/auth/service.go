// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailExists          = errors.New("email already exists")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

type AccountInfo struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
}

type AccountProvider interface {
	GetByEmail(ctx context.Context, email string) (*AccountInfo, error)
	GetByID(ctx context.Context, id int64) (*AccountInfo, error)
	Create(
		ctx context.Context,
		fullName, email, passwordHash string,
	) (*AccountInfo, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Service struct {
	accounts    AccountProvider
	sessions    SessionStore
	tokens      *TokenManager
	ttl         time.Duration
	rememberTTL time.Duration
	metrics     *core.Metrics
}

type ServiceConfig struct {
	TTL         time.Duration
	RememberTTL time.Duration
	Metrics     *core.Metrics
}

func NewService(
	accounts AccountProvider,
	sessions SessionStore,
	tokens *TokenManager,
	cfg ServiceConfig,
) *Service {
	return &Service{
		accounts:    accounts,
		sessions:    sessions,
		tokens:      tokens,
		ttl:         cfg.TTL,
		rememberTTL: cfg.RememberTTL,
		metrics:     cfg.Metrics,
	}
}

func (s *Service) Login(
	ctx context.Context,
	current core.Session,
	req LoginRequest,
	client ClientInfo,
) (*Result, error) {
	if current.IsAuthenticated() {
		return nil, ErrAlreadyAuthenticated
	}

	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			s.metrics.RecordAuth("login", "invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&account.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		s.metrics.RecordAuth("login", "invalid")
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.accounts.UpdatePassword(ctx, account.ID, newHash)
	}

	s.metrics.RecordAuth("login", "success")
	return s.startSession(ctx, account, req.RememberMe, client)
}

// Register creates the account and logs it in.
func (s *Service) Register(
	ctx context.Context,
	current core.Session,
	req RegisterRequest,
	client ClientInfo,
) (*Result, error) {
	if current.IsAuthenticated() {
		return nil, ErrAlreadyAuthenticated
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = defaultFullName(req.Email)
	}

	account, err := s.accounts.Create(ctx, fullName, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			s.metrics.RecordAuth("register", "duplicate")
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.metrics.RecordAuth("register", "success")
	return s.startSession(ctx, account, false, client)
}

// Logout ends the given session. Anonymous callers are a no-op.
func (s *Service) Logout(ctx context.Context, session core.Session) error {
	if !session.IsAuthenticated() {
		return nil
	}

	if err := s.sessions.Delete(ctx, session.AccountID, session.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// Current resolves a cookie token without side effects. Every failure is
// the anonymous session.
func (s *Service) Current(ctx context.Context, token string) core.Session {
	if token == "" {
		return core.Anonymous()
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return core.Anonymous()
	}

	rec, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return core.Anonymous()
	}

	if rec.AccountID != claims.AccountID || rec.IsExpired() {
		return core.Anonymous()
	}

	return core.Session{AccountID: rec.AccountID, SessionID: rec.ID}
}

// ChangePassword ends every session of the account, replaces the stored hash
// and starts a new session for the caller.
func (s *Service) ChangePassword(
	ctx context.Context,
	session core.Session,
	req ChangePasswordRequest,
	client ClientInfo,
) (*Result, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// A failed revocation must leave the stored hash untouched.
	if err := s.sessions.DeleteAllForAccount(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("revoke sessions: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	core.AddSpanEvent(ctx, "password.changed",
		attribute.Int64("account.id", account.ID),
	)

	return s.startSession(ctx, account, false, client)
}

func (s *Service) ActiveSessions(
	ctx context.Context,
	session core.Session,
) ([]SessionInfo, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	records, err := s.sessions.ListForAccount(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	infos := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, SessionInfo{
			ID:        rec.ID,
			UserAgent: rec.UserAgent,
			IPAddress: rec.IPAddress,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
			Current:   rec.ID == session.SessionID,
		})
	}

	return infos, nil
}

func (s *Service) startSession(
	ctx context.Context,
	account *AccountInfo,
	remember bool,
	client ClientInfo,
) (*Result, error) {
	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}

	now := time.Now()
	rec := &SessionRecord{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := s.tokens.Issue(account.ID, rec.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &Result{
		Session:    core.Session{AccountID: account.ID, SessionID: rec.ID},
		Email:      account.Email,
		Token:      token,
		ExpiresAt:  rec.ExpiresAt,
		Persistent: remember,
	}, nil
}

func defaultFullName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

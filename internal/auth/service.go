package auth

import (
	"context"
	"dockpanel/internal/entity"
	"dockpanel/internal/model"
	"dockpanel/internal/permission"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures the first-run administrator.
type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string
	// CreateAdmin controls whether bootstrap provisions an administrator on an empty store.
	CreateAdmin      bool
	BootstrapTimeout time.Duration
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Identity  entity.IdentitySummary
	Token     string
	ExpiresAt time.Time
}

// Service registers and authenticates identities and issues bearer tokens.
//
// NewService starts bootstrap in the background; every exported method waits
// for that single run to finish before touching the store.
type Service struct {
	repo   model.Repository
	tokens *Manager
	hasher *Hasher
	logger logrus.FieldLogger
	opts   Options

	ready chan struct{}
}

// NewService constructs the service and kicks off bootstrap.
func NewService(repo model.Repository, tokens *Manager, hasher *Hasher, logger logrus.FieldLogger, opts Options) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = 30 * time.Second
	}
	s := &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		logger: logger.WithField("component", "auth"),
		opts:   opts,
		ready:  make(chan struct{}),
	}
	go s.runBootstrap()
	return s
}

// Wait blocks until bootstrap has finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenLifetime returns the lifetime of issued tokens.
func (s *Service) TokenLifetime() time.Duration {
	return s.tokens.Lifetime()
}

// HasUsers reports whether any identity exists.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	if err := s.Wait(ctx); err != nil {
		return false, err
	}
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Register provisions the first account. It is closed as soon as the store
// holds any identity, and the account it creates is the super administrator.
func (s *Service) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}

	email = entity.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}
	if count > 0 {
		return nil, ErrRegistrationClosed
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbIdentity{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         entity.RoleAdmin,
		Permissions:  permission.ForRole(entity.RoleAdmin),
		IsSuperAdmin: true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, entity.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	s.audit(ctx, entity.AuditIdentityRegister, nil, user, "")
	return s.issue(user)
}

// Login checks the password and issues a token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}

	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			s.hasher.burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	if err := s.hasher.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Verify resolves a token to the identity as currently stored, so role and
// permission changes made after issuance are reflected.
func (s *Service) Verify(ctx context.Context, token string) (*entity.IdentitySummary, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *Service) issue(user *entity.DbIdentity) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{
		Identity:  user.Summary(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// audit records a mutation. Failures are logged and never fail the caller.
func (s *Service) audit(ctx context.Context, action string, actor *entity.IdentitySummary, target *entity.DbIdentity, detail string) {
	event := &entity.DbAuditEvent{Action: action, Detail: detail}
	if actor != nil {
		event.ActorID = actor.ID
		event.ActorEmail = actor.Email
	}
	if target != nil {
		event.TargetID = target.ID
		event.TargetEmail = target.Email
	}
	if err := s.repo.CreateAuditEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("failed to record audit event")
	}
}

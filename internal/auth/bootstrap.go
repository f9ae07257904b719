package auth

import (
	"context"
	"dockpanel/internal/entity"
	"dockpanel/internal/permission"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAdminEmail = "admin@dockpanel.local"
	DefaultAdminName  = "Administrator"

	// MinAdminPasswordLength is the shortest ADMIN_PASSWORD bootstrap accepts.
	MinAdminPasswordLength = 12
)

func (s *Service) runBootstrap() {
	defer close(s.ready)
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("identity bootstrap panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.BootstrapTimeout)
	defer cancel()

	if err := s.bootstrap(ctx); err != nil {
		s.logger.WithError(err).Error("identity bootstrap failed; fix configuration and restart")
	}
}

// bootstrap makes sure exactly one super administrator exists: keep an existing
// one, otherwise promote an existing identity, otherwise create one.
func (s *Service) bootstrap(ctx context.Context) error {
	users, err := s.repo.AllUsers(ctx)
	if err != nil {
		return fmt.Errorf("load identities: %w", err)
	}

	for i := range users {
		if users[i].IsSuperAdmin {
			s.logger.WithField("email", users[i].Email).Debug("super administrator present")
			return nil
		}
	}

	if len(users) > 0 {
		return s.promote(ctx, users)
	}

	if !s.opts.CreateAdmin {
		s.logger.Info("identity store is empty; waiting for the first registration")
		return nil
	}
	return s.createAdmin(ctx)
}

func (s *Service) promote(ctx context.Context, users []entity.DbIdentity) error {
	candidate := &users[0]
	for i := range users {
		if users[i].Role == entity.RoleAdmin {
			candidate = &users[i]
			break
		}
	}

	role := entity.RoleAdmin
	perms := entity.StringArray(permission.ForRole(entity.RoleAdmin))
	super := true
	promoted, err := s.repo.UpdateUser(ctx, candidate.ID, entity.IdentityUpdates{
		Role:         &role,
		Permissions:  &perms,
		IsSuperAdmin: &super,
	})
	if err != nil {
		return fmt.Errorf("promote %s: %w", candidate.Email, err)
	}

	s.logger.WithFields(logrus.Fields{
		"email": promoted.Email,
		"id":    promoted.ID,
	}).Warn("no super administrator found; promoted existing identity")
	s.audit(ctx, entity.AuditBootstrapPromote, nil, promoted, "")
	return nil
}

func (s *Service) createAdmin(ctx context.Context) error {
	email := entity.NormalizeEmail(s.opts.AdminEmail)
	if email == "" {
		email = DefaultAdminEmail
	}
	name := strings.TrimSpace(s.opts.AdminName)
	if name == "" {
		name = DefaultAdminName
	}

	password := s.opts.AdminPassword
	generated := false
	if len(password) < MinAdminPasswordLength {
		if password != "" {
			s.logger.WithField("min_length", MinAdminPasswordLength).Warn("ADMIN_PASSWORD is too short and was ignored")
		}
		var err error
		if password, err = randomString(24); err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		generated = true
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &entity.DbIdentity{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         entity.RoleAdmin,
		Permissions:  permission.ForRole(entity.RoleAdmin),
		IsSuperAdmin: true,
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, entity.ErrDuplicateEmail) {
			// another instance won the race against the unique index
			s.logger.WithField("email", email).Info("administrator already created by another instance")
			return nil
		}
		return fmt.Errorf("create administrator: %w", err)
	}

	s.audit(ctx, entity.AuditBootstrapCreate, nil, admin, "")

	entry := s.logger.WithFields(logrus.Fields{"email": admin.Email, "id": admin.ID})
	if generated {
		// the only channel the generated password is ever delivered through
		entry.WithField("password", password).Warn("created administrator with generated password; it will not be shown again")
		return nil
	}
	entry.Info("created administrator")
	return nil
}

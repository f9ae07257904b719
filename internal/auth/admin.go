package auth

import (
	"context"
	"dockpanel/internal/entity"
	"dockpanel/internal/permission"
	"errors"
	"fmt"
	"strings"
)

// CreateIdentityInput is the administrator-supplied account data.
type CreateIdentityInput struct {
	Email    string
	Password string
	Name     string
	Role     string
	// Permissions overrides the role seed when non-nil.
	Permissions []string
}

// UpdateIdentityInput holds optional changes; nil fields are left untouched.
type UpdateIdentityInput struct {
	Name        *string
	Password    *string
	Role        *string
	Permissions *[]string
}

// ListIdentities returns a page of identities for the administrative listing.
func (s *Service) ListIdentities(ctx context.Context, query *entity.IdentityQuery) ([]entity.IdentitySummary, *entity.Meta, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, nil, err
	}
	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("list identities: %w", err)
	}
	out := make([]entity.IdentitySummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, meta, nil
}

// CreateIdentity creates an account on behalf of actor. Only the super
// administrator may create admins, and nobody may grant rights they do not hold.
func (s *Service) CreateIdentity(ctx context.Context, actor *entity.IdentitySummary, in CreateIdentityInput) (*entity.IdentitySummary, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrForbidden
	}

	email := entity.NormalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	role := permission.NormalizeRole(in.Role)
	if role == "" {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	if role == entity.RoleAdmin && !actor.IsSuperAdmin {
		return nil, fmt.Errorf("%w: only the super administrator can create admin users", ErrForbidden)
	}

	perms := permission.ForRole(role)
	if in.Permissions != nil {
		var err error
		if perms, err = s.grantable(actor, in.Permissions); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbIdentity{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		Permissions:  perms,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, entity.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	s.audit(ctx, entity.AuditIdentityCreate, actor, user, "role="+role)
	summary := user.Summary()
	return &summary, nil
}

// UpdateIdentity applies an administrative change. A role change does not
// rewrite permissions; callers send both to replace the snapshot.
func (s *Service) UpdateIdentity(ctx context.Context, actor *entity.IdentitySummary, id string, in UpdateIdentityInput) (*entity.IdentitySummary, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrForbidden
	}

	target, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsSuperAdmin && actor.ID != target.ID {
		return nil, fmt.Errorf("%w: the super administrator cannot be modified", ErrForbidden)
	}
	if target.Role == entity.RoleAdmin && !actor.IsSuperAdmin && actor.ID != target.ID {
		return nil, fmt.Errorf("%w: only the super administrator can modify admin users", ErrForbidden)
	}

	var updates entity.IdentityUpdates
	var changed []string

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		updates.Name = &name
		changed = append(changed, "name")
	}

	if in.Password != nil {
		hash, err := s.hasher.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates.PasswordHash = &hash
		changed = append(changed, "password")
	}

	if in.Role != nil {
		if !actor.IsSuperAdmin {
			return nil, fmt.Errorf("%w: only the super administrator can change roles", ErrForbidden)
		}
		role := permission.NormalizeRole(*in.Role)
		if role == "" {
			return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
		}
		if target.IsSuperAdmin && role != entity.RoleAdmin {
			return nil, fmt.Errorf("%w: the super administrator must keep the admin role", ErrInvalidInput)
		}
		updates.Role = &role
		changed = append(changed, "role")
	}

	if in.Permissions != nil {
		if !actor.IsSuperAdmin {
			return nil, fmt.Errorf("%w: only the super administrator can change permissions", ErrForbidden)
		}
		perms, err := s.grantable(actor, *in.Permissions)
		if err != nil {
			return nil, err
		}
		if target.IsSuperAdmin && !contains(perms, permission.UsersManage) {
			return nil, fmt.Errorf("%w: the super administrator must keep %s", ErrInvalidInput, permission.UsersManage)
		}
		arr := entity.StringArray(perms)
		updates.Permissions = &arr
		changed = append(changed, "permissions")
	}

	if updates.IsEmpty() {
		summary := target.Summary()
		return &summary, nil
	}

	updated, err := s.repo.UpdateUser(ctx, target.ID, updates)
	if err != nil {
		return nil, fmt.Errorf("update identity: %w", err)
	}

	s.audit(ctx, entity.AuditIdentityUpdate, actor, updated, strings.Join(changed, ","))
	summary := updated.Summary()
	return &summary, nil
}

// DeleteIdentity removes an account. Nobody deletes themselves or the super
// administrator, and only the super administrator deletes admins.
func (s *Service) DeleteIdentity(ctx context.Context, actor *entity.IdentitySummary, id string) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete current user", ErrInvalidInput)
	}

	target, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsSuperAdmin {
		return fmt.Errorf("%w: the super administrator cannot be deleted", ErrForbidden)
	}
	if target.Role == entity.RoleAdmin && !actor.IsSuperAdmin {
		return fmt.Errorf("%w: only the super administrator can delete admin users", ErrForbidden)
	}

	if err := s.repo.DeleteUser(ctx, target.ID); err != nil {
		return err
	}
	s.audit(ctx, entity.AuditIdentityDelete, actor, target, "")
	return nil
}

// ListAuditEvents returns a page of the audit trail.
func (s *Service) ListAuditEvents(ctx context.Context, query *entity.AuditQuery) ([]entity.DbAuditEvent, *entity.Meta, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, nil, err
	}
	events, meta, err := s.repo.ListAuditEvents(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, meta, nil
}

// grantable sanitises requested permissions and rejects unknown tags as well
// as tags the actor does not hold.
func (s *Service) grantable(actor *entity.IdentitySummary, requested []string) ([]string, error) {
	perms, unknown := permission.Sanitize(requested)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown permissions %s", ErrInvalidInput, strings.Join(unknown, ", "))
	}
	if !actor.IsSuperAdmin && !actor.HasAllPermissions(perms) {
		return nil, fmt.Errorf("%w: cannot grant permissions you do not hold", ErrForbidden)
	}
	return perms, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"dockpanel/internal/entity"
	"dockpanel/internal/model"
	"dockpanel/internal/permission"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

type fixture struct {
	repo   model.Repository
	tokens *Manager
	hasher *Hasher
	logger *logrus.Logger
	hook   *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	repo, err := model.NewRepositoryFactory().Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := repo.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = repo.Close() })

	tokens, err := NewManager("test-secret", "dockpanel-test", time.Hour)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	return &fixture{
		repo:   repo,
		tokens: tokens,
		hasher: NewHasher(bcrypt.MinCost),
		logger: logger,
		hook:   hook,
	}
}

func (f *fixture) service(t *testing.T, opts Options) *Service {
	t.Helper()
	svc := NewService(f.repo, f.tokens, f.hasher, f.logger, opts)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
	return svc
}

func (f *fixture) seed(t *testing.T, email, role string, createdAt time.Time) *entity.DbIdentity {
	t.Helper()
	hash, err := f.hasher.HashPassword("seed-password")
	require.NoError(t, err)
	user := &entity.DbIdentity{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  permission.ForRole(role),
		CreatedAt:    createdAt,
	}
	require.NoError(t, f.repo.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) generatedPassword(t *testing.T) string {
	t.Helper()
	for _, entry := range f.hook.AllEntries() {
		if pw, ok := entry.Data["password"].(string); ok {
			return pw
		}
	}
	t.Fatal("no generated password was logged")
	return ""
}

func (f *fixture) superAdmins(t *testing.T) []entity.DbIdentity {
	t.Helper()
	users, err := f.repo.AllUsers(context.Background())
	require.NoError(t, err)
	var out []entity.DbIdentity
	for _, u := range users {
		if u.IsSuperAdmin {
			out = append(out, u)
		}
	}
	return out
}

func TestBootstrapCreatesAdminWithGeneratedPassword(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: true})

	password := f.generatedPassword(t)
	assert.GreaterOrEqual(t, len(password), MinAdminPasswordLength)

	res, err := svc.Login(context.Background(), DefaultAdminEmail, password)
	require.NoError(t, err)
	assert.True(t, res.Identity.IsSuperAdmin)
	assert.Equal(t, entity.RoleAdmin, res.Identity.Role)
	assert.Equal(t, permission.All(), res.Identity.Permissions)
	assert.Equal(t, DefaultAdminName, res.Identity.Name)
	assert.NotEmpty(t, res.Token)

	events, _, err := svc.ListAuditEvents(context.Background(), &entity.AuditQuery{Action: entity.AuditBootstrapCreate})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestBootstrapUsesConfiguredAdmin(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{
		CreateAdmin:   true,
		AdminEmail:    "Root@Example.com",
		AdminName:     "Root",
		AdminPassword: "a-long-enough-password",
	})

	res, err := svc.Login(context.Background(), "root@example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, "Root", res.Identity.Name)

	for _, entry := range f.hook.AllEntries() {
		_, leaked := entry.Data["password"]
		assert.False(t, leaked, "configured password must not be logged")
	}
}

func TestBootstrapIgnoresShortConfiguredPassword(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: true, AdminPassword: "short"})

	_, err := svc.Login(context.Background(), DefaultAdminEmail, "short")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), DefaultAdminEmail, f.generatedPassword(t))
	assert.NoError(t, err)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.service(t, Options{CreateAdmin: true})
	f.service(t, Options{CreateAdmin: true, AdminEmail: "second@example.com"})

	count, err := f.repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, f.superAdmins(t), 1)
}

func TestConcurrentBootstrapAcrossInstances(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := NewService(f.repo, f.tokens, f.hasher, f.logger, Options{CreateAdmin: true})
			_ = svc.Wait(context.Background())
		}()
	}
	wg.Wait()

	count, err := f.repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, f.superAdmins(t), 1)
}

func TestEntryPointsAwaitBootstrap(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.tokens, f.hasher, f.logger, Options{CreateAdmin: true})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Login(context.Background(), DefaultAdminEmail, "definitely-wrong")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Len(t, f.superAdmins(t), 1)
}

func TestBootstrapPromotesExistingAdmin(t *testing.T) {
	f := newFixture(t)
	base := time.Now().Add(-time.Hour)
	viewer := f.seed(t, "viewer@example.com", entity.RoleViewer, base)
	admin := f.seed(t, "admin@example.com", entity.RoleAdmin, base.Add(time.Minute))
	operator := f.seed(t, "operator@example.com", entity.RoleOperator, base.Add(2*time.Minute))

	f.service(t, Options{CreateAdmin: true})

	supers := f.superAdmins(t)
	require.Len(t, supers, 1)
	assert.Equal(t, admin.ID, supers[0].ID)

	count, err := f.repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "promotion must not create a new account")

	for _, before := range []*entity.DbIdentity{viewer, operator} {
		after, err := f.repo.GetUserByID(context.Background(), before.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Role, after.Role)
		assert.Equal(t, before.Permissions.ToSlice(), after.Permissions.ToSlice())
		assert.False(t, after.IsSuperAdmin)
	}
}

func TestBootstrapPromotesFirstIdentityWithoutAdmin(t *testing.T) {
	f := newFixture(t)
	base := time.Now().Add(-time.Hour)
	first := f.seed(t, "first@example.com", entity.RoleViewer, base)
	f.seed(t, "second@example.com", entity.RoleOperator, base.Add(time.Minute))

	f.service(t, Options{CreateAdmin: false})

	promoted, err := f.repo.GetUserByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsSuperAdmin)
	assert.Equal(t, entity.RoleAdmin, promoted.Role)
	assert.Equal(t, permission.All(), promoted.Permissions.ToSlice())
	assert.Len(t, f.superAdmins(t), 1)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: false})
	ctx := context.Background()

	hasUsers, err := svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.False(t, hasUsers)

	_, err = svc.Register(ctx, "", "password", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "first@example.com", "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := svc.Register(ctx, "First@Example.com", "first-password", " First ")
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", res.Identity.Email)
	assert.Equal(t, "First", res.Identity.Name)
	assert.True(t, res.Identity.IsSuperAdmin)
	assert.Equal(t, permission.All(), res.Identity.Permissions)

	verified, err := svc.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Identity.ID, verified.ID)

	_, err = svc.Register(ctx, "second@example.com", "second-password", "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	_, err = svc.Register(ctx, "first@example.com", "first-password", "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterClosedAfterBootstrap(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: true})

	_, err := svc.Register(context.Background(), "late@example.com", "late-password", "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestLoginDoesNotRevealEmailExistence(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: false})
	f.seed(t, "x@example.com", entity.RoleViewer, time.Now())
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, "x@example.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "wrong")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err := svc.Login(ctx, "X@EXAMPLE.COM", "seed-password")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "x@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: false})
	ctx := context.Background()
	user := f.seed(t, "ops@example.com", entity.RoleOperator, time.Now())

	res, err := svc.Login(ctx, "ops@example.com", "seed-password")
	require.NoError(t, err)

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.Verify(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("reflects current record", func(t *testing.T) {
		perms := entity.StringArray{permission.DashboardView}
		_, err := f.repo.UpdateUser(ctx, user.ID, entity.IdentityUpdates{Permissions: &perms})
		require.NoError(t, err)

		identity, err := svc.Verify(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, []string{permission.DashboardView}, identity.Permissions)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewManager("test-secret", "dockpanel-test", time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted identity", func(t *testing.T) {
		require.NoError(t, f.repo.DeleteUser(ctx, user.ID))
		_, err := svc.Verify(ctx, res.Token)
		assert.ErrorIs(t, err, ErrIdentityNotFound)
	})
}

func TestAdministrativeIdentityManagement(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Options{CreateAdmin: false})
	ctx := context.Background()

	root, err := svc.Register(ctx, "root@example.com", "root-password", "Root")
	require.NoError(t, err)
	super := &root.Identity

	admin, err := svc.CreateIdentity(ctx, super, CreateIdentityInput{
		Email: "admin@example.com", Password: "admin-password", Role: "admin",
	})
	require.NoError(t, err)
	assert.False(t, admin.IsSuperAdmin)
	assert.Equal(t, permission.All(), admin.Permissions)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateIdentity(ctx, super, CreateIdentityInput{
			Email: "ADMIN@example.com", Password: "x-password", Role: "viewer",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid role and permissions", func(t *testing.T) {
		_, err := svc.CreateIdentity(ctx, super, CreateIdentityInput{Email: "r@example.com", Password: "p-password", Role: "root"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.CreateIdentity(ctx, super, CreateIdentityInput{
			Email: "p@example.com", Password: "p-password", Role: "viewer", Permissions: []string{"docker:*"},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("only super admin creates admins", func(t *testing.T) {
		_, err := svc.CreateIdentity(ctx, admin, CreateIdentityInput{Email: "a2@example.com", Password: "p-password", Role: "admin"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("per-identity permission override", func(t *testing.T) {
		viewer, err := svc.CreateIdentity(ctx, admin, CreateIdentityInput{
			Email: "auditor@example.com", Password: "p-password", Role: "viewer",
			Permissions: []string{permission.AuditView, permission.DashboardView},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{permission.DashboardView, permission.AuditView}, viewer.Permissions)
	})

	t.Run("role change keeps permission snapshot", func(t *testing.T) {
		viewer, err := svc.CreateIdentity(ctx, super, CreateIdentityInput{Email: "v@example.com", Password: "p-password", Role: "viewer"})
		require.NoError(t, err)

		role := entity.RoleOperator
		updated, err := svc.UpdateIdentity(ctx, super, viewer.ID, UpdateIdentityInput{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, entity.RoleOperator, updated.Role)
		assert.Equal(t, permission.ForRole(entity.RoleViewer), updated.Permissions)

		perms := permission.ForRole(entity.RoleOperator)
		updated, err = svc.UpdateIdentity(ctx, super, viewer.ID, UpdateIdentityInput{Permissions: &perms})
		require.NoError(t, err)
		assert.Equal(t, permission.ForRole(entity.RoleOperator), updated.Permissions)
	})

	t.Run("super admin is protected", func(t *testing.T) {
		name := "renamed"
		_, err := svc.UpdateIdentity(ctx, admin, super.ID, UpdateIdentityInput{Name: &name})
		assert.ErrorIs(t, err, ErrForbidden)

		role := entity.RoleViewer
		_, err = svc.UpdateIdentity(ctx, super, super.ID, UpdateIdentityInput{Role: &role})
		assert.ErrorIs(t, err, ErrInvalidInput)

		assert.ErrorIs(t, svc.DeleteIdentity(ctx, admin, super.ID), ErrForbidden)
		assert.ErrorIs(t, svc.DeleteIdentity(ctx, super, super.ID), ErrInvalidInput)
	})

	t.Run("password reset", func(t *testing.T) {
		password := "new-admin-password"
		_, err := svc.UpdateIdentity(ctx, super, admin.ID, UpdateIdentityInput{Password: &password})
		require.NoError(t, err)

		_, err = svc.Login(ctx, "admin@example.com", "admin-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, "admin@example.com", password)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := svc.UpdateIdentity(ctx, super, uuid.NewString(), UpdateIdentityInput{})
		assert.ErrorIs(t, err, entity.ErrUserNotFound)

		require.NoError(t, svc.DeleteIdentity(ctx, super, admin.ID))
		assert.ErrorIs(t, svc.DeleteIdentity(ctx, super, admin.ID), entity.ErrUserNotFound)
	})

	events, meta, err := svc.ListAuditEvents(ctx, &entity.AuditQuery{TargetID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.Total) // create, update, delete
	assert.Len(t, events, 3)

	list, _, err := svc.ListIdentities(ctx, &entity.IdentityQuery{Keyword: "root"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, super.ID, list[0].ID)
}

package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradocs/database/repository/memory"
	"tradocs/models"
	"tradocs/utils"
)

func newTestService(seed ...models.Profile) (*DefaultAccountService, *memory.Profiles, *utils.MemoryAuthCache) {
	repo := memory.NewProfiles(seed...)
	cache := utils.NewMemoryAuthCache()
	return NewAccountService(repo, cache, time.Hour), repo, cache
}

func TestRegisterCreatesCustomerAndSignsIn(t *testing.T) {
	ctx := context.Background()
	svc, repo, cache := newTestService(models.Profile{ID: "aff", Email: "aff@example.com", Role: models.RoleCustomer, AffiliateCode: "ABCD2345"})

	resp, err := svc.Register(ctx, RegisterRequest{Email: " New@Example.com ", Password: "secret123", FullName: "Ana Lopez", ReferralCode: "abcd2345"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.Token == "" || resp.Role != models.RoleCustomer {
		t.Fatalf("unexpected response %+v", resp)
	}

	stored, err := repo.GetByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if stored.ReferredBy != "ABCD2345" {
		t.Fatalf("referral not recorded, got %q", stored.ReferredBy)
	}
	if stored.TokenHash != utils.HashToken(resp.Token) {
		t.Fatal("token hash not stored on profile")
	}
	if h, _ := cache.Get(ctx, stored.ID); h != stored.TokenHash {
		t.Fatal("auth cache not primed")
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(models.Profile{ID: "p1", Email: "taken@example.com"})

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"short password", RegisterRequest{Email: "a@b.co", Password: "a1", FullName: "A"}, &ValidationError{}},
		{"no digit", RegisterRequest{Email: "a@b.co", Password: "abcdefghij", FullName: "A"}, &ValidationError{}},
		{"missing name", RegisterRequest{Email: "a@b.co", Password: "abcdefg1", FullName: " "}, &ValidationError{}},
		{"duplicate email", RegisterRequest{Email: "TAKEN@example.com", Password: "abcdefg1", FullName: "A"}, ErrEmailTaken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			var ve *ValidationError
			if _, isValidation := tc.want.(*ValidationError); isValidation {
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, repo, cache := newTestService()
	reg, err := svc.Register(ctx, RegisterRequest{Email: "c@example.com", Password: "password1", FullName: "C"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "c@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}

	login, err := svc.Login(ctx, "C@example.com", "password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p, _ := repo.GetByID(ctx, reg.ID)
	if p.TokenHash != utils.HashToken(login.Token) {
		t.Fatal("login should replace the stored token hash")
	}

	if err := svc.Logout(ctx, reg.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	p, _ = repo.GetByID(ctx, reg.ID)
	if p.TokenHash != "" {
		t.Fatal("logout should clear the token hash")
	}
	if h, _ := cache.Get(ctx, reg.ID); h != "" {
		t.Fatal("logout should evict the auth cache")
	}
}

func TestChangePasswordAndUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	reg, _ := svc.Register(ctx, RegisterRequest{Email: "d@example.com", Password: "password1", FullName: "D"})

	if err := svc.ChangePassword(ctx, reg.ID, "nope", "newpass12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, reg.ID, "password1", "newpass12"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, "d@example.com", "newpass12"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	name, token := "Dana", "fcm-token"
	p, err := svc.UpdateProfile(ctx, reg.ID, UpdateProfileRequest{FullName: &name, FCMToken: &token})
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Dana" || p.FCMToken != "fcm-token" {
		t.Fatalf("profile not updated: %+v", p)
	}
	empty := " "
	var ve *ValidationError
	if _, err := svc.UpdateProfile(ctx, reg.ID, UpdateProfileRequest{FullName: &empty}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnableAffiliateIsStable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(models.Profile{ID: "p1", Email: "p1@example.com", Role: models.RoleCustomer})
	first, err := svc.EnableAffiliate(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.AffiliateCode) != affiliateCodeLength {
		t.Fatalf("unexpected code %q", first.AffiliateCode)
	}
	second, _ := svc.EnableAffiliate(ctx, "p1")
	if second.AffiliateCode != first.AffiliateCode {
		t.Fatal("affiliate code must not change once assigned")
	}
}

func TestAdminRoleManagement(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestService(
		models.Profile{ID: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
		models.Profile{ID: "p1", Email: "p1@example.com", Role: models.RoleCustomer, TokenHash: "h"},
	)
	_ = cache.Set(ctx, "p1", "h")

	if _, err := svc.SetRole(ctx, "admin", "p1", "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.SetRole(ctx, "admin", "admin", models.RoleCustomer); !errors.Is(err, ErrSelfModification) {
		t.Fatalf("expected ErrSelfModification, got %v", err)
	}
	p, err := svc.SetRole(ctx, "admin", "p1", models.RoleAuthenticator)
	if err != nil {
		t.Fatal(err)
	}
	if p.Role != models.RoleAuthenticator || p.TokenHash != "" {
		t.Fatalf("role change should revoke the session: %+v", p)
	}
	if h, _ := cache.Get(ctx, "p1"); h != "" {
		t.Fatal("role change should evict the auth cache")
	}

	counts, _ := svc.CountByRole(ctx)
	if counts[models.RoleAdmin] != 1 || counts[models.RoleAuthenticator] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	if err := svc.DeleteProfile(ctx, "admin", "admin"); !errors.Is(err, ErrSelfModification) {
		t.Fatalf("expected ErrSelfModification, got %v", err)
	}
	if err := svc.DeleteProfile(ctx, "admin", "p1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteProfile(ctx, "admin", "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type flakyCache struct {
	*utils.MemoryAuthCache
	failDelete bool
}

func (c *flakyCache) Delete(ctx context.Context, userID string) error {
	if c.failDelete {
		return errors.New("redis: connection refused")
	}
	return c.MemoryAuthCache.Delete(ctx, userID)
}

func TestRevocationFailureIsReported(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProfiles(
		models.Profile{ID: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
		models.Profile{ID: "p1", Email: "p1@example.com", Role: models.RoleAdmin, TokenHash: "h"},
		models.Profile{ID: "p2", Email: "p2@example.com", Role: models.RoleFinance, TokenHash: "h2"},
	)
	cache := &flakyCache{MemoryAuthCache: utils.NewMemoryAuthCache(), failDelete: true}
	_ = cache.Set(ctx, "p1", "h")
	_ = cache.Set(ctx, "p2", "h2")
	svc := NewAccountService(repo, cache, time.Hour)

	if _, err := svc.SetRole(ctx, "admin", "p1", models.RoleCustomer); !errors.Is(err, ErrSessionRevocation) {
		t.Fatalf("expected ErrSessionRevocation, got %v", err)
	}
	if err := svc.DeleteProfile(ctx, "admin", "p2"); !errors.Is(err, ErrSessionRevocation) {
		t.Fatalf("expected ErrSessionRevocation, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "p2"); err != nil {
		t.Fatalf("profile should survive a failed revocation: %v", err)
	}

	// retrying once the cache recovers finishes both
	cache.failDelete = false
	if _, err := svc.SetRole(ctx, "admin", "p1", models.RoleCustomer); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if h, _ := cache.Get(ctx, "p1"); h != "" {
		t.Fatal("retry should evict the stale session")
	}
	if err := svc.DeleteProfile(ctx, "admin", "p2"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if h, _ := cache.Get(ctx, "p2"); h != "" {
		t.Fatal("deleted profile should not keep a cached session")
	}
}

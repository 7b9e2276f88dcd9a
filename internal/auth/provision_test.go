package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

// fakeUserStore is an in-memory UserStore that counts writes.
type fakeUserStore struct {
	byEmail map[string]*model.User
	byID    map[string]*model.User
	creates int
	updates int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
	}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	return f.byID[id], nil
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.creates++
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID.String()] = user
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, user *model.User) error {
	f.updates++
	f.byEmail[user.Email] = user
	f.byID[user.ID.String()] = user
	return nil
}

func ssoClaims() *Claims {
	return &Claims{
		Subject:       "provider-subject-1",
		Email:         "ada@example.com",
		EmailVerified: true,
		GivenName:     "Ada",
		FamilyName:    "Lovelace",
	}
}

func TestProvisionCreatesNewUser(t *testing.T) {
	store := newFakeUserStore()
	p := NewProvisioner(store, logger.NewDefault())

	user, err := p.Provision(context.Background(), ssoClaims())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if user.FullName != "Ada Lovelace" {
		t.Errorf("full name = %q, want %q", user.FullName, "Ada Lovelace")
	}
	if user.HashedPassword != "" {
		t.Error("sso user must have no password")
	}
	if !user.IsActive {
		t.Error("sso user should be created active")
	}
	if !user.IsVerified {
		t.Error("verified claim should carry over")
	}
	if user.SSOSubjectID != "provider-subject-1" {
		t.Errorf("sso subject = %q, want %q", user.SSOSubjectID, "provider-subject-1")
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
}

func TestProvisionIdempotent(t *testing.T) {
	store := newFakeUserStore()
	p := NewProvisioner(store, logger.NewDefault())
	ctx := context.Background()

	first, err := p.Provision(ctx, ssoClaims())
	if err != nil {
		t.Fatalf("first Provision: %v", err)
	}
	second, err := p.Provision(ctx, ssoClaims())
	if err != nil {
		t.Fatalf("second Provision: %v", err)
	}

	if first.ID != second.ID {
		t.Error("repeated provisioning should resolve to the same user")
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
	if store.updates != 0 {
		t.Errorf("updates = %d, want 0 for unchanged claims", store.updates)
	}
}

func TestProvisionReconcilesChangedName(t *testing.T) {
	store := newFakeUserStore()
	p := NewProvisioner(store, logger.NewDefault())
	ctx := context.Background()

	if _, err := p.Provision(ctx, ssoClaims()); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	claims := ssoClaims()
	claims.GivenName = "Augusta Ada"
	user, err := p.Provision(ctx, claims)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if user.FullName != "Augusta Ada Lovelace" {
		t.Errorf("full name = %q, want %q", user.FullName, "Augusta Ada Lovelace")
	}
	if store.updates != 1 {
		t.Errorf("updates = %d, want 1", store.updates)
	}
}

func TestProvisionLinksExistingLocalUser(t *testing.T) {
	store := newFakeUserStore()
	existing := &model.User{
		Email:          "ada@example.com",
		HashedPassword: "$2a$12$existinghash",
		FullName:       "Ada Lovelace",
		IsActive:       true,
	}
	if err := store.Create(context.Background(), existing); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	store.creates = 0

	p := NewProvisioner(store, logger.NewDefault())
	user, err := p.Provision(context.Background(), ssoClaims())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if user.ID != existing.ID {
		t.Error("sso login should link to the existing local user by email")
	}
	if user.SSOSubjectID != "provider-subject-1" {
		t.Errorf("sso subject = %q, want it backfilled on first sso login", user.SSOSubjectID)
	}
	if user.HashedPassword == "" {
		t.Error("linking must not clear the local password")
	}
	if store.creates != 0 {
		t.Errorf("creates = %d, want 0", store.creates)
	}
}

func TestProvisionNeverOverwritesSubject(t *testing.T) {
	store := newFakeUserStore()
	p := NewProvisioner(store, logger.NewDefault())
	ctx := context.Background()

	if _, err := p.Provision(ctx, ssoClaims()); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	claims := ssoClaims()
	claims.Subject = "rotated-subject"
	user, err := p.Provision(ctx, claims)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if user.SSOSubjectID != "provider-subject-1" {
		t.Errorf("sso subject = %q, want original preserved", user.SSOSubjectID)
	}
	if store.updates != 0 {
		t.Errorf("updates = %d, want 0 for a subject-only change", store.updates)
	}
}

func TestProvisionTracksVerificationState(t *testing.T) {
	store := newFakeUserStore()
	p := NewProvisioner(store, logger.NewDefault())
	ctx := context.Background()

	if _, err := p.Provision(ctx, ssoClaims()); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	claims := ssoClaims()
	claims.EmailVerified = false
	user, err := p.Provision(ctx, claims)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if user.IsVerified {
		t.Error("is_verified should track the latest claim")
	}
}

func TestProvisionRequiresEmail(t *testing.T) {
	p := NewProvisioner(newFakeUserStore(), logger.NewDefault())
	if _, err := p.Provision(context.Background(), &Claims{Subject: "s"}); err == nil {
		t.Error("expected error for claims without email")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name   string
		claims *Claims
		want   string
	}{
		{"given and family", &Claims{GivenName: "Ada", FamilyName: "Lovelace"}, "Ada Lovelace"},
		{"given only", &Claims{GivenName: "Ada"}, "Ada"},
		{"name claim", &Claims{Name: "Ada Lovelace"}, "Ada Lovelace"},
		{"email local part", &Claims{Email: "ada@example.com"}, "ada"},
		{"nothing", &Claims{}, "User"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := displayName(tc.claims); got != tc.want {
				t.Errorf("displayName = %q, want %q", got, tc.want)
			}
		})
	}
}

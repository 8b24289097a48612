package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo, validator.New())
	svc.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestService_CreateValidates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", CreateInput{Name: "x", PhoneNumbers: []string{"+1"}}); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
	bad := []CreateInput{
		{PhoneNumbers: []string{"+15550001111"}},
		{Name: "Salon"},
		{Name: "Salon", PhoneNumbers: []string{"  "}},
		{Name: "Salon", PhoneNumbers: []string{"+15550001111"}, AdminEmail: "not-an-email"},
		{Name: "Salon", PhoneNumbers: []string{"+15550001111"}, Voice: "robot"},
		{Name: "Salon", PhoneNumbers: []string{"+15550001111"}, Timezone: "Mars/Olympus"},
	}
	for i, in := range bad {
		if _, err := svc.Create(ctx, "t1", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_CreateNormalizes(t *testing.T) {
	svc, repo := newTestService()
	a, err := svc.Create(context.Background(), "t1", CreateInput{
		Name:         " Bella Salon ",
		PhoneNumbers: []string{"+15550001111", " +15550001111 "},
		Voice:        "MALE",
		AdminEmail:   "owner@bella.example",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Name != "Bella Salon" || a.Voice != VoiceMale || !a.IsActive || len(a.PhoneNumbers) != 1 {
		t.Fatalf("unexpected agent %+v", a)
	}
	if _, err := repo.FindActiveByPhone(context.Background(), "+15550001111"); err != nil {
		t.Fatalf("expected number claimed: %v", err)
	}
}

func TestService_PhoneNumbersUniqueAcrossTenants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "t1", CreateInput{Name: "A", PhoneNumbers: []string{"+15550001111"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "t2", CreateInput{Name: "B", PhoneNumbers: []string{"+15550001111"}}); !errors.Is(err, ErrPhoneNumberTaken) {
		t.Fatalf("expected ErrPhoneNumberTaken, got %v", err)
	}
}

func TestService_UpdateIsTenantScoped(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, err := svc.Create(ctx, "t1", CreateInput{Name: "A", PhoneNumbers: []string{"+15550001111"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Other"
	if _, err := svc.Update(ctx, "t2", a.ID, UpdateInput{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, "t1", a.ID, UpdateInput{Name: &name, IsActive: &inactive, PhoneNumbers: []string{"+15550002222"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Other" || updated.IsActive {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := repo.FindActiveByPhone(ctx, "+15550001111"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old number should be released, got %v", err)
	}
}

package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestService_AppendValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	cases := []Event{
		{TenantID: "t1"},
		{Type: EventTypeAdminAction},
		{Type: EventTypeWebhookFlag},
	}
	for i, e := range cases {
		if err := svc.Append(ctx, e); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("case %d: expected ErrInvalidEvent, got %v", i, err)
		}
	}
}

func TestService_FlagWebhookWithoutTenant(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.FlagWebhook(context.Background(), "missing_agent_id", "call-1", "", "end-of-call-report"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned, got %+v", evs[0])
	}
	if evs[0].Type != EventTypeWebhookFlag || evs[0].ExternalCallID != "call-1" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
}

func TestService_LogAdminAction(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	if err := svc.LogAdminAction(context.Background(), "t1", "u1", "tenant_admin", "1.2.3.4", "a1", "agent updated"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if evs := repo.Events(); len(evs) != 1 || evs[0].IPAddress != "1.2.3.4" || evs[0].AgentID != "a1" {
		t.Fatalf("unexpected events %+v", evs)
	}
}

func TestPostgresRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(
			sqlmock.AnyArg(), // id
			"",
			"webhook_flag",
			"", "", "",
			"ghost",
			"call-9",
			"unknown_agent",
			"end-of-call-report",
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := NewService(NewPostgresRepo(db))
	if err := svc.FlagWebhook(context.Background(), "unknown_agent", "call-9", "ghost", "end-of-call-report"); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

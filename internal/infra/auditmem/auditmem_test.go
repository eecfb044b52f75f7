package auditmem

import (
	"context"
	"testing"
	"time"

	"chainverify/internal/domain"
	"chainverify/internal/usecase"
)

func fixedClock() time.Time {
	return time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)
}

func appendEvents(t *testing.T, repo *Repository, tenantID string, n int) []domain.AuditEvent {
	t.Helper()
	out := make([]domain.AuditEvent, 0, n)
	for i := 0; i < n; i++ {
		event, err := repo.Append(context.Background(), domain.AuditEvent{
			TenantID:  tenantID,
			EventType: domain.AuditEventBatchExecuted,
			Payload:   map[string]any{"batch_id": i},
		})
		if err != nil {
			t.Fatalf("append event %d: %v", i, err)
		}
		out = append(out, event)
	}
	return out
}

func TestAppend_BuildsChain(t *testing.T) {
	repo := NewWithClock(fixedClock)
	events := appendEvents(t, repo, "tenant-1", 3)

	if events[0].Seq != 1 || events[1].Seq != 2 || events[2].Seq != 3 {
		t.Fatalf("sequence must be contiguous from 1: %d %d %d", events[0].Seq, events[1].Seq, events[2].Seq)
	}
	if events[0].PrevEventHash != zeroHash {
		t.Fatalf("first event must link to the zero hash, got %s", events[0].PrevEventHash)
	}
	for i := 1; i < len(events); i++ {
		if events[i].PrevEventHash != events[i-1].EventHash {
			t.Fatalf("event %d not linked to its predecessor", i+1)
		}
	}
	for _, event := range events {
		if len(event.EventHash) != 64 || len(event.PayloadHash) != 64 {
			t.Fatalf("hashes must be sha256 hex: %+v", event)
		}
		if event.ID == "" {
			t.Fatal("append must assign an event id")
		}
	}
}

func TestAppend_TenantChainsAreIndependent(t *testing.T) {
	repo := NewWithClock(fixedClock)
	appendEvents(t, repo, "tenant-a", 2)
	appendEvents(t, repo, "tenant-b", 1)

	a, err := repo.ListByTenant(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	b, err := repo.ListByTenant(context.Background(), "tenant-b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(a) != 2 || len(b) != 1 {
		t.Fatalf("expected 2/1 events, got %d/%d", len(a), len(b))
	}
	if b[0].Seq != 1 || b[0].PrevEventHash != zeroHash {
		t.Fatal("each tenant chain starts fresh")
	}
}

func TestAppend_DefaultsToSystemTenant(t *testing.T) {
	repo := NewWithClock(fixedClock)
	event, err := repo.Append(context.Background(), domain.AuditEvent{
		EventType: domain.AuditEventSpecIngested,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if event.TenantID != domain.AuditSystemTenantID {
		t.Fatalf("expected system tenant, got %s", event.TenantID)
	}
}

func TestVerifyTenantAuditChain(t *testing.T) {
	repo := NewWithClock(fixedClock)
	appendEvents(t, repo, "tenant-1", 5)

	if err := usecase.VerifyTenantAuditChain(context.Background(), repo, "tenant-1"); err != nil {
		t.Fatalf("intact chain must verify: %v", err)
	}
}

func TestVerifyTenantAuditChain_DetectsTampering(t *testing.T) {
	cases := []struct {
		name   string
		tamper func(events []domain.AuditEvent)
	}{
		{"payload", func(events []domain.AuditEvent) {
			events[1].Payload = []byte(`{"batch_id":999}`)
		}},
		{"seq", func(events []domain.AuditEvent) {
			events[2].Seq = 7
		}},
		{"prev_hash", func(events []domain.AuditEvent) {
			events[2].PrevEventHash = zeroHash
		}},
		{"created_at", func(events []domain.AuditEvent) {
			events[0].CreatedAt = events[0].CreatedAt.Add(time.Hour)
		}},
		{"dropped_event", func(events []domain.AuditEvent) {
			copy(events[1:], events[2:])
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewWithClock(fixedClock)
			appendEvents(t, repo, "tenant-1", 3)

			repo.mu.Lock()
			tc.tamper(repo.tenants["tenant-1"].events)
			repo.mu.Unlock()

			if err := usecase.VerifyTenantAuditChain(context.Background(), repo, "tenant-1"); err == nil {
				t.Fatal("tampered chain must fail verification")
			}
		})
	}
}

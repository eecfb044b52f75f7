// Package auditmem keeps per-tenant audit chains in process memory.
// It backs deployments without a database and the test suite; chain
// semantics are identical to the database-backed repository.
package auditmem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"chainverify/internal/domain"
	"chainverify/internal/infra/canonjson"
	"chainverify/internal/usecase"

	"github.com/google/uuid"
)

type Repository struct {
	mu      sync.RWMutex
	tenants map[string]*chainState
	clock   func() time.Time
}

type chainState struct {
	events []domain.AuditEvent
}

func New() *Repository {
	return &Repository{
		tenants: make(map[string]*chainState),
		clock:   time.Now,
	}
}

func NewWithClock(clock func() time.Time) *Repository {
	r := New()
	if clock != nil {
		r.clock = clock
	}
	return r
}

func (r *Repository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditEvent{}, err
	}
	if event.EventType == "" {
		return domain.AuditEvent{}, errors.New("event_type is required")
	}
	if event.TenantID == "" {
		event.TenantID = domain.AuditSystemTenantID
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.clock()
	}
	event.CreatedAt = event.CreatedAt.UTC().Truncate(time.Microsecond)

	payloadJSON, err := canonjson.CanonicalizeAny(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	event.Payload = payloadJSON
	sum := sha256.Sum256(payloadJSON)
	event.PayloadHash = hex.EncodeToString(sum[:])

	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.tenants[event.TenantID]
	if state == nil {
		state = &chainState{}
		r.tenants[event.TenantID] = state
	}

	prevHash := zeroHash
	if n := len(state.events); n > 0 {
		prevHash = state.events[n-1].EventHash
	}
	event.Seq = int64(len(state.events)) + 1
	event.PrevEventHash = prevHash

	eventHash, err := usecase.ComputeAuditEventHash(event)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	event.EventHash = eventHash

	state.events = append(state.events, event)
	return event, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID string) ([]domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tenantID == "" {
		tenantID = domain.AuditSystemTenantID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	state := r.tenants[tenantID]
	if state == nil {
		return nil, nil
	}
	out := make([]domain.AuditEvent, len(state.events))
	copy(out, state.events)
	return out, nil
}

const zeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

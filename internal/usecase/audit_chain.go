package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chainverify/internal/domain"
)

const zeroAuditHash = "0000000000000000000000000000000000000000000000000000000000000000"

// VerifyTenantAuditChain replays a tenant's audit events and checks the
// hash chain end to end: contiguous sequence numbers starting at 1,
// each event linked to its predecessor, and every stored hash matching
// a recomputation from the stored fields.
func VerifyTenantAuditChain(ctx context.Context, repo AuditEventRepository, tenantID string) error {
	if repo == nil {
		return errors.New("audit repository required")
	}
	if tenantID == "" {
		tenantID = domain.AuditSystemTenantID
	}
	events, err := repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	expectedSeq := int64(1)
	prevHash := zeroAuditHash
	for _, event := range events {
		if event.TenantID != tenantID {
			return fmt.Errorf("audit chain tenant mismatch at seq %d", event.Seq)
		}
		if event.Seq != expectedSeq {
			return fmt.Errorf("audit chain seq mismatch: expected %d got %d", expectedSeq, event.Seq)
		}
		if event.PrevEventHash != prevHash {
			return fmt.Errorf("audit chain prev hash mismatch at seq %d", event.Seq)
		}
		payloadJSON, err := auditPayloadBytes(event.Payload)
		if err != nil {
			return fmt.Errorf("audit chain payload decode failed at seq %d: %w", event.Seq, err)
		}
		if sha256Hex(payloadJSON) != event.PayloadHash {
			return fmt.Errorf("audit chain payload hash mismatch at seq %d", event.Seq)
		}
		if event.CreatedAt.IsZero() {
			return fmt.Errorf("audit chain missing created_at at seq %d", event.Seq)
		}
		expectedHash, err := ComputeAuditEventHash(event)
		if err != nil {
			return fmt.Errorf("audit chain hash compute failed at seq %d: %w", event.Seq, err)
		}
		if expectedHash != event.EventHash {
			return fmt.Errorf("audit chain hash mismatch at seq %d", event.Seq)
		}
		prevHash = event.EventHash
		expectedSeq++
	}
	return nil
}

// ComputeAuditEventHash hashes the chain envelope of an event. The
// envelope is canonical JSON with fixed, alphabetically ordered keys so
// the hash is stable across storage round trips.
func ComputeAuditEventHash(event domain.AuditEvent) (string, error) {
	if event.TenantID == "" || event.EventType == "" {
		return "", errors.New("audit event missing tenant_id or event_type")
	}
	if event.PayloadHash == "" || event.PrevEventHash == "" {
		return "", errors.New("audit event missing payload_hash or prev_event_hash")
	}

	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	writeAuditField(buf, "created_at", event.CreatedAt.UTC().Format(time.RFC3339Nano))
	writeAuditField(buf, "event_type", string(event.EventType))
	writeAuditField(buf, "payload_hash", event.PayloadHash)
	writeAuditField(buf, "prev_event_hash", event.PrevEventHash)
	buf.WriteString(`"seq":` + strconv.FormatInt(event.Seq, 10) + `,`)
	writeAuditField(buf, "tenant_id", event.TenantID)
	buf.WriteString(`"v":`)
	writeAuditString(buf, domain.AuditChainVersion)
	buf.WriteByte('}')

	return sha256Hex(buf.Bytes()), nil
}

func auditPayloadBytes(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("stored payload must be canonical JSON bytes")
	}
}

func sha256Hex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

func writeAuditField(buf *bytes.Buffer, key, value string) {
	writeAuditString(buf, key)
	buf.WriteByte(':')
	writeAuditString(buf, value)
	buf.WriteByte(',')
}

func writeAuditString(buf *bytes.Buffer, value string) {
	buf.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

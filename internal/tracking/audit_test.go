package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestAuditAppendHasNoDedup(t *testing.T) {
	store := newFakeStore()
	audit := NewAuditLog(store)
	ctx := context.Background()

	entry := AuditEntry{
		AuthenticationCode: "auth-1",
		OrganizationID:     42,
		SpaceID:            1,
		ParticipantID:      7,
		IsAuthenticated:    true,
		Reason:             map[string]any{"match": "primary"},
		Logs:               map[string]any{"frames": 12},
		Threshold:          0.85,
	}
	if err := audit.Append(ctx, entry); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := audit.Append(ctx, entry); err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if len(store.authLogs) != 2 {
		t.Fatalf("expected two rows for identical appends, got %d", len(store.authLogs))
	}
	if !bytes.Equal(store.authLogs[0].Reason, store.authLogs[1].Reason) {
		t.Fatalf("identical appends stored different reason documents")
	}
}

func TestAuditAppendEncodesDocuments(t *testing.T) {
	store := newFakeStore()
	audit := NewAuditLog(store)

	err := audit.Append(context.Background(), AuditEntry{
		AuthenticationCode: "auth-2",
		OrganizationID:     42,
		SpaceID:            1,
		ParticipantID:      7,
		IsAuthenticated:    false,
		Reason:             map[string]any{"code": "NO_FACE", "detail": map[string]any{"frame": 3}},
		Logs:               []any{"started", "no face detected"},
		Threshold:          0.7,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	rec := store.authLogs[0]
	var reason map[string]any
	if err := json.Unmarshal(rec.Reason, &reason); err != nil {
		t.Fatalf("reason is not valid JSON: %v", err)
	}
	if reason["code"] != "NO_FACE" {
		t.Fatalf("unexpected reason document: %v", reason)
	}
	var logs []any
	if err := json.Unmarshal(rec.Logs, &logs); err != nil {
		t.Fatalf("logs is not valid JSON: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("unexpected logs document: %v", logs)
	}
	if rec.Threshold != 0.7 || rec.IsAuthenticated {
		t.Fatalf("unexpected stored record: %+v", rec)
	}
}

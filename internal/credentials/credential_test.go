package credentials

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUsable(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"active no expiry", Credential{Status: StatusActive}, true},
		{"active future expiry", Credential{Status: StatusActive, ExpiresAt: &future}, true},
		{"active past expiry", Credential{Status: StatusActive, ExpiresAt: &past}, false},
		{"active expiry exactly now", Credential{Status: StatusActive, ExpiresAt: &now}, false},
		{"suspended", Credential{Status: StatusSuspended}, false},
		{"expired status", Credential{Status: StatusExpired}, false},
	}

	for _, tt := range tests {
		if got := tt.cred.Usable(now); got != tt.want {
			t.Errorf("%s: Usable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGenerateTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if !strings.HasPrefix(token, "sk-") {
			t.Fatalf("token missing sk- prefix: %q", token)
		}
		if len(token) != len("sk-")+tokenSecretLength {
			t.Fatalf("unexpected token length %d", len(token))
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = struct{}{}
	}
}

func TestMemoryStoreLookup(t *testing.T) {
	store := NewMemoryStore()
	cred := &Credential{Token: "sk-known", Status: StatusActive}
	store.Put(cred)

	got, err := store.Lookup(context.Background(), "sk-known")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != cred.ID {
		t.Fatalf("lookup returned wrong credential")
	}

	if _, err := store.Lookup(context.Background(), "sk-unknown"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreAddUsageConcurrent(t *testing.T) {
	store := NewMemoryStore()
	cred := &Credential{Token: "sk-counter", Status: StatusActive}
	store.Put(cred)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := store.AddUsage(context.Background(), cred.ID, 7); err != nil {
				t.Errorf("add usage: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetByID(context.Background(), cred.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalRequests != n {
		t.Fatalf("expected %d total requests, got %d", n, got.TotalRequests)
	}
	if got.TotalTokens != n*7 {
		t.Fatalf("expected %d total tokens, got %d", n*7, got.TotalTokens)
	}
}

func TestMemoryStoreAddUsageUnknownCredential(t *testing.T) {
	store := NewMemoryStore()
	if err := store.AddUsage(context.Background(), uuid.New(), 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanDefaults(t *testing.T) {
	perMinute, perDay := PlanDefaults(PlanFree)
	if perMinute != 10 || perDay != 1_000 {
		t.Fatalf("unexpected free defaults: %d/%d", perMinute, perDay)
	}
	perMinute, perDay = PlanDefaults(PlanEnterprise)
	if perMinute != 1_000 || perDay != 1_000_000 {
		t.Fatalf("unexpected enterprise defaults: %d/%d", perMinute, perDay)
	}
}

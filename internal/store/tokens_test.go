package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/trgovina/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = IsTokenRevoked(ctx, database, "test-jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := range 2 {
		if err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("RevokeToken #%d: %v", i+1, err)
		}
	}
}

func TestPruneRevokedTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	now := time.Now()
	RevokeToken(ctx, database, "live", now.Add(time.Hour))
	RevokeToken(ctx, database, "soon", now.Add(2*time.Hour))

	n, err := PruneRevokedTokens(ctx, database, now.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("PruneRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned revocation, got %d", n)
	}

	if revoked, _ := IsTokenRevoked(ctx, database, "live"); revoked {
		t.Error("expected expired revocation to be pruned")
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "soon"); !revoked {
		t.Error("expected unexpired revocation to remain")
	}
}

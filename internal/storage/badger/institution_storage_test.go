package badger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/models"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestInstitutionStorage(t *testing.T) (*institutionStorage, *Store) {
	t.Helper()
	store := newTestStore(t)
	cipher, err := common.NewCipher(testCipherKey)
	if err != nil {
		t.Fatal(err)
	}
	return NewInstitutionStorage(store, cipher, common.NewSilentLogger()), store
}

func testInstitution(id, owner string) *models.LinkedInstitution {
	return &models.LinkedInstitution{
		ID:              id,
		OwnerID:         owner,
		AccessSecret:    "access-sandbox-" + id,
		ItemID:          "item-" + id,
		InstitutionName: "Test Bank",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestInstitutionSaveAndGet(t *testing.T) {
	storage, _ := newTestInstitutionStorage(t)
	ctx := context.Background()

	inst := testInstitution("b1", "u1")
	if err := storage.SaveInstitution(ctx, inst); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := storage.GetInstitution(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccessSecret != inst.AccessSecret {
		t.Errorf("secret round trip: got %q", got.AccessSecret)
	}
	if got.ItemID != inst.ItemID || got.InstitutionName != inst.InstitutionName {
		t.Errorf("record mismatch: %+v", got)
	}
}

func TestInstitutionSecretEncryptedAtRest(t *testing.T) {
	storage, store := newTestInstitutionStorage(t)
	ctx := context.Background()

	inst := testInstitution("b1", "u1")
	if err := storage.SaveInstitution(ctx, inst); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Read the raw record without the cipher layer.
	var raw models.LinkedInstitution
	if err := store.DB().Get("b1", &raw); err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if raw.AccessSecret == inst.AccessSecret {
		t.Error("access secret stored in plaintext")
	}
	if strings.Contains(raw.AccessSecret, inst.AccessSecret) {
		t.Error("access secret embedded in stored record")
	}
}

func TestInstitutionSaveDoesNotMutateInput(t *testing.T) {
	storage, _ := newTestInstitutionStorage(t)

	inst := testInstitution("b1", "u1")
	original := inst.AccessSecret
	if err := storage.SaveInstitution(context.Background(), inst); err != nil {
		t.Fatalf("save: %v", err)
	}
	if inst.AccessSecret != original {
		t.Error("save must not overwrite the caller's secret")
	}
}

func TestInstitutionGetByOwner(t *testing.T) {
	storage, _ := newTestInstitutionStorage(t)
	ctx := context.Background()

	for _, inst := range []*models.LinkedInstitution{
		testInstitution("b1", "u1"),
		testInstitution("b2", "u1"),
		testInstitution("b3", "u2"),
	} {
		if err := storage.SaveInstitution(ctx, inst); err != nil {
			t.Fatalf("save %s: %v", inst.ID, err)
		}
	}

	insts, err := storage.GetInstitutionsByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("get by owner: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("expected 2 institutions, got %d", len(insts))
	}
	for _, inst := range insts {
		if !strings.HasPrefix(inst.AccessSecret, "access-sandbox-") {
			t.Errorf("secret not decrypted on read: %q", inst.AccessSecret)
		}
	}

	none, err := storage.GetInstitutionsByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("get by unknown owner: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no institutions, got %d", len(none))
	}
}

func TestInstitutionUpsertReplaces(t *testing.T) {
	storage, _ := newTestInstitutionStorage(t)
	ctx := context.Background()

	inst := testInstitution("b1", "u1")
	if err := storage.SaveInstitution(ctx, inst); err != nil {
		t.Fatal(err)
	}

	inst.AccessSecret = "access-sandbox-rotated"
	if err := storage.SaveInstitution(ctx, inst); err != nil {
		t.Fatal(err)
	}

	got, err := storage.GetInstitution(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessSecret != "access-sandbox-rotated" {
		t.Errorf("expected rotated secret, got %q", got.AccessSecret)
	}
}

func TestInstitutionDelete(t *testing.T) {
	storage, _ := newTestInstitutionStorage(t)
	ctx := context.Background()

	if err := storage.SaveInstitution(ctx, testInstitution("b1", "u1")); err != nil {
		t.Fatal(err)
	}
	if err := storage.DeleteInstitution(ctx, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := storage.GetInstitution(ctx, "b1"); err == nil {
		t.Error("expected error after delete")
	}

	// Deleting a missing record is not an error.
	if err := storage.DeleteInstitution(ctx, "missing"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

package bolt

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKVRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	kv, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := kv.Set(ctx, "k2n_token", "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	kv, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()

	value, ok, err := kv.Get(ctx, "k2n_token")
	if err != nil || !ok || value != "t1" {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}

	if err := kv.Delete(ctx, "k2n_token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k2n_token"); ok {
		t.Fatal("key survived delete")
	}
	if err := kv.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
}

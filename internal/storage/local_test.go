package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()
	key := OriginalKey("m-1")

	exists, err := store.ObjectExists(ctx, key)
	if err != nil || exists {
		t.Fatalf("expected missing object, got exists=%v err=%v", exists, err)
	}

	if err := store.WriteObject(ctx, key, []byte("jpeg bytes"), "image/jpeg"); err != nil {
		t.Fatalf("write object: %v", err)
	}
	got, err := store.ReadObject(ctx, key)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if !bytes.Equal(got, []byte("jpeg bytes")) {
		t.Fatalf("unexpected object content %q", got)
	}
	if exists, _ := store.ObjectExists(ctx, key); !exists {
		t.Fatal("expected object to exist after write")
	}
}

func TestLocalStoreMissingObject(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if _, err := store.ReadObject(context.Background(), ThumbnailKey("nope")); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if err := store.WriteObject(context.Background(), "../outside.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected error for key escaping the root")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

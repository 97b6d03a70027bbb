package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"callscribe/internal/store"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	payload := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0xff, 0x7f}

	addr, err := s.Put(ctx, "converted-input", "job1_call one.wav", payload)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if addr.Key != "job1_call%20one.wav" {
		t.Errorf("returned key = %q, want sanitized form", addr.Key)
	}

	got, err := s.Get(ctx, addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %v, want %v", got, payload)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Put(ctx, "input", "k", []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	addr, err := s.Put(ctx, "input", "k", []byte("second"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("got %q after overwrite, want %q", got, "second")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), store.Address{Container: "input", Key: "nope"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, key := range []string{"job1_a.json", "job1_b.json", "job2_a.json"} {
		if _, err := s.Put(ctx, "output", key, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := s.List(ctx, "output", "job1_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2: %v", len(keys), keys)
	}
	if keys[0] != "job1_a.json" || keys[1] != "job1_b.json" {
		t.Errorf("keys out of order: %v", keys)
	}
}

func TestExists(t *testing.T) {
	s := New()
	ctx := context.Background()

	addr, err := s.Put(ctx, "input", "present.wav", []byte("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := s.Exists(ctx, addr)
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v; want true, nil", ok, err)
	}

	ok, err = s.Exists(ctx, store.Address{Container: "input", Key: "absent.wav"})
	if err != nil || ok {
		t.Errorf("Exists(absent) = %v, %v; want false, nil", ok, err)
	}
}

func TestSignedGetURL(t *testing.T) {
	s := New()
	ctx := context.Background()
	addr := store.Address{Container: "output", Key: "k.json"}

	if _, err := s.SignedGetURL(ctx, addr, 0); err == nil {
		t.Error("expected error without BaseURL")
	}

	s.BaseURL = "http://127.0.0.1:9999/"
	url, err := s.SignedGetURL(ctx, addr, 0)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if url != "http://127.0.0.1:9999/output/k.json" {
		t.Errorf("url = %q", url)
	}
}

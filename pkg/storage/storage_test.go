package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	if _, ok, err := s.Get("token"); err != nil || ok {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}
	if err := s.Put(map[string]string{"token": "abc", "user": `{"id":1}`}); err != nil {
		t.Fatalf("put: %v", err)
	}
	for key, want := range map[string]string{"token": "abc", "user": `{"id":1}`} {
		got, ok, err := s.Get(key)
		if err != nil || !ok || got != want {
			t.Fatalf("get %s = %q ok=%v err=%v, want %q", key, got, ok, err, want)
		}
	}
	if err := s.Delete("token", "user", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.Get("user"); err != nil || ok {
		t.Fatalf("get after delete: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestNoopStorageNeverRetains(t *testing.T) {
	s := NoopStorage{}
	if err := s.Put(map[string]string{"token": "abc"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := s.Get("token"); ok {
		t.Fatal("noop storage must not return values")
	}
}

func TestBoltStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := OpenBoltStorage(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStorage(t, s)
	if err := s.Put(map[string]string{"token": "persisted"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBoltStorage(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Get("token")
	if err != nil || !ok || got != "persisted" {
		t.Fatalf("after reopen got %q ok=%v err=%v", got, ok, err)
	}
}

func TestRedisStorage(t *testing.T) {
	redis := miniredis.RunT(t)
	s, err := NewRedisStorage(redis.Addr(), "", "")
	if err != nil {
		t.Fatalf("new redis storage: %v", err)
	}
	defer s.Close()
	exerciseStorage(t, s)

	if err := s.Put(map[string]string{"token": "shared"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got, err := redis.Get("semicolon:session:token"); err != nil || got != "shared" {
		t.Fatalf("raw redis value = %q err=%v", got, err)
	}
}

func TestNewRedisStorageRequiresAddr(t *testing.T) {
	if _, err := NewRedisStorage(" ", "", ""); err == nil {
		t.Fatal("expected missing addr to fail")
	}
}

func TestSealedStorageEncryptsAtRest(t *testing.T) {
	inner := NewMemoryStorage()
	s, err := NewSealedStorage(inner, []byte("passphrase"))
	if err != nil {
		t.Fatalf("new sealed: %v", err)
	}
	exerciseStorage(t, s)

	if err := s.Put(map[string]string{"token": "abc", "user": "bob"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw, _, _ := inner.Get("token")
	if raw == "" || strings.Contains(raw, "abc") {
		t.Fatalf("value stored in clear: %q", raw)
	}

	// Moving a ciphertext to another entry must not decrypt.
	rawUser, _, _ := inner.Get("user")
	_ = inner.Put(map[string]string{"token": rawUser})
	if _, _, err := s.Get("token"); err == nil {
		t.Fatal("expected swapped ciphertext to fail authentication")
	}

	other, _ := NewSealedStorage(inner, []byte("different"))
	if _, _, err := other.Get("user"); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	s, closer, err := Open(Config{Driver: "memory", Secret: "k"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer closer.Close()
	if _, ok := s.(*SealedStorage); !ok {
		t.Fatalf("expected sealed wrapper, got %T", s)
	}

	s, closer, err = Open(Config{})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	defer closer.Close()
	if _, ok := s.(NoopStorage); !ok {
		t.Fatalf("expected noop storage, got %T", s)
	}

	s, closer, err = Open(Config{Driver: "bolt", Path: filepath.Join(t.TempDir(), "s.db")})
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	if _, ok := s.(*BoltStorage); !ok {
		t.Fatalf("expected bolt storage, got %T", s)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close bolt: %v", err)
	}

	if _, _, err := Open(Config{Driver: "etcd"}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

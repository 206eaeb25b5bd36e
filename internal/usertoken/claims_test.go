package usertoken

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("server-only-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInspectReadsSubjectAndExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signHS256(t, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("subject = %q, want alice", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp.UTC()) {
		t.Fatalf("expiresAt = %v, want %v", claims.ExpiresAt, exp.UTC())
	}
	if claims.Expired(time.Now(), 0) {
		t.Fatal("fresh token reported expired")
	}
}

func TestInspectRejectsOpaqueToken(t *testing.T) {
	if _, err := Inspect("abc"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT, got %v", err)
	}
	if _, err := Inspect("a.b.c"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT for garbage segments, got %v", err)
	}
}

func TestUsable(t *testing.T) {
	now := time.Now()
	expired := signHS256(t, jwt.RegisteredClaims{Subject: "bob", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	fresh := signHS256(t, jwt.RegisteredClaims{Subject: "bob", ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))})
	noExp := signHS256(t, jwt.RegisteredClaims{Subject: "bob"})

	cases := []struct {
		name   string
		token  string
		leeway time.Duration
		want   bool
	}{
		{"empty", "", 0, false},
		{"opaque", "abc", 0, true},
		{"fresh", fresh, 0, true},
		{"expired", expired, 0, false},
		{"expired within leeway", expired, 2 * time.Minute, true},
		{"no exp claim", noExp, 0, true},
	}
	for _, tc := range cases {
		if got := Usable(tc.token, now, tc.leeway); got != tc.want {
			t.Fatalf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

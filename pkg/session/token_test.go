package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueVerifyRoundTrip(t *testing.T) {
	m, err := NewManager(testSecret, "paintcode", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.Issue("sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "sess-1" {
		t.Fatalf("session = %q", got)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	m, _ := NewManager(testSecret, "paintcode", time.Hour)
	token, _ := m.Issue("sess-1")

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	other, _ := NewManager([]byte(strings.Repeat("k", 32)), "paintcode", time.Hour)
	foreign, _ := other.Issue("sess-1")
	if _, err := m.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, _ := NewManager(testSecret, "paintcode", time.Hour)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, _ := m.Issue("sess-1")

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issuerA, _ := NewManager(testSecret, "paintcode", time.Hour)
	issuerB, _ := NewManager(testSecret, "elsewhere", time.Hour)

	token, _ := issuerB.Issue("sess-1")
	if _, err := issuerA.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestShortSecretRejected(t *testing.T) {
	if _, err := NewManager([]byte("short"), "paintcode", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestIssueAndVerify(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	userID := uuid.New()
	signed, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if signed == "" {
		t.Fatal("empty token")
	}

	got, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != userID {
		t.Errorf("Verify returned %s, want %s", got, userID)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens, _ := NewTokens("test-secret")
	other, _ := NewTokens("other-secret")

	signed, err := other.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", signed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Verify(tt.token); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNewTokensEmptySecret(t *testing.T) {
	if _, err := NewTokens(""); err == nil {
		t.Error("expected an error for an empty secret")
	}
}

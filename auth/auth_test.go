// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}

	// 16 bytes = 32 hex characters
	if len(id) != 32 {
		t.Errorf("Expected 32 character ID, got %d: %s", len(id), id)
	}

	// Should be unique across calls
	id2, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if id == id2 {
		t.Error("Two generated IDs should not be equal")
	}
}

func TestGenerateVoterToken(t *testing.T) {
	token, err := GenerateVoterToken()
	if err != nil {
		t.Fatalf("GenerateVoterToken failed: %v", err)
	}

	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	// URL-safe base64 without padding
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("Token contains non-URL-safe characters: %s", token)
	}

	token2, _ := GenerateVoterToken()
	if token == token2 {
		t.Error("Two generated tokens should not be equal")
	}
}

func TestGeneratePresenterName(t *testing.T) {
	name := GeneratePresenterName()

	if !strings.HasPrefix(name, "presenter_") {
		t.Errorf("Expected presenter_ prefix, got %s", name)
	}

	if len(name) != len("presenter_")+6 {
		t.Errorf("Expected 6 random characters, got %s", name)
	}

	if name == GeneratePresenterName() {
		t.Error("Two generated names should not be equal")
	}
}

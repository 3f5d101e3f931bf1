package services

import (
	"context"
	"errors"
	"testing"
)

func TestAdminService_Verify(t *testing.T) {
	s := NewAdminService("hunter2", nil, nil, nil)

	if err := s.Verify("hunter2"); err != nil {
		t.Errorf("correct key rejected: %v", err)
	}
	if err := s.Verify("wrong"); !errors.Is(err, ErrAdminKeyMismatch) {
		t.Errorf("wrong key: error = %v, want ErrAdminKeyMismatch", err)
	}
	if err := s.Verify(""); !errors.Is(err, ErrAdminKeyMismatch) {
		t.Errorf("empty key: error = %v, want ErrAdminKeyMismatch", err)
	}

	// Gated operations fail closed before touching their dependencies.
	if _, err := s.Stats(context.Background(), "wrong"); !errors.Is(err, ErrAdminKeyMismatch) {
		t.Errorf("Stats with wrong key: error = %v, want ErrAdminKeyMismatch", err)
	}
}

func TestNewAdminService_EmptyKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty admin key")
		}
	}()
	NewAdminService("", nil, nil, nil)
}

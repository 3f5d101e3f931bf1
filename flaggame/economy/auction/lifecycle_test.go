package auction

import (
	"testing"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

func Test_canTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.AuctionStatus
		to   models.AuctionStatus
		want bool
	}{
		{"pending to active", models.AuctionStatusPending, models.AuctionStatusActive, true},
		{"pending to cancelled", models.AuctionStatusPending, models.AuctionStatusCancelled, true},
		{"pending to settled", models.AuctionStatusPending, models.AuctionStatusSettled, false},
		{"active to closing", models.AuctionStatusActive, models.AuctionStatusClosing, true},
		{"active to settled", models.AuctionStatusActive, models.AuctionStatusSettled, false},
		{"closing to settled", models.AuctionStatusClosing, models.AuctionStatusSettled, true},
		{"closing to cancelled", models.AuctionStatusClosing, models.AuctionStatusCancelled, true},
		{"settled is terminal", models.AuctionStatusSettled, models.AuctionStatusCancelled, false},
		{"cancelled is terminal", models.AuctionStatusCancelled, models.AuctionStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func Test_initialStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := initialStatus(now.Add(time.Hour), now); got != models.AuctionStatusPending {
		t.Errorf("future openAt: got %s, want pending", got)
	}
	if got := initialStatus(now, now); got != models.AuctionStatusActive {
		t.Errorf("openAt now: got %s, want active", got)
	}
	if got := initialStatus(now.Add(-time.Hour), now); got != models.AuctionStatusActive {
		t.Errorf("past openAt: got %s, want active", got)
	}
}

func Test_closeDue_inclusiveBoundary(t *testing.T) {
	closeAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := &models.Auction{Status: models.AuctionStatusActive, CloseAt: closeAt}

	if closeDue(a, closeAt.Add(-time.Nanosecond)) {
		t.Error("auction should still be open just before closing time")
	}
	// A timestamp exactly at the closing time is already too late.
	if !closeDue(a, closeAt) {
		t.Error("auction should be due exactly at closing time")
	}
	if !closeDue(a, closeAt.Add(time.Second)) {
		t.Error("auction should be due after closing time")
	}
}

func Test_codeGenerator(t *testing.T) {
	g := newCodeGenerator()
	seen := make(map[string]struct{})

	for i := 0; i < 500; i++ {
		code, err := g.next()
		if err != nil {
			t.Fatalf("next() error = %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
}

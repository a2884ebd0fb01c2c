package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway represents the external bank transfer provider.
type Gateway interface {
	// SendTransfer pushes funds to an external bank destination.
	// Returns a provider reference ID and an error if the transfer failed.
	SendTransfer(ctx context.Context, destination string, amount decimal.Decimal) (string, error)
}

// MockGateway simulates an external transfer provider for testing.
// It introduces a random delay (2-5 seconds) and fails ~10% of the time.
type MockGateway struct {
	// FailureRate is the probability of failure (0.0 to 1.0). Default: 0.1 (10%)
	FailureRate float64
}

// NewMockGateway creates a new MockGateway with default settings.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		FailureRate: 0.1,
	}
}

// SendTransfer simulates pushing a transfer to an external provider.
// It sleeps for 2-5 seconds to simulate network latency, then randomly
// fails based on the FailureRate. Returns a fake reference ID on success.
func (g *MockGateway) SendTransfer(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	// Simulate network delay: 2-5 seconds
	delay := 2 + rand.Intn(3)
	delayMs := time.Duration(delay*1000+rand.Intn(1000)) * time.Millisecond

	select {
	case <-time.After(delayMs):
	case <-ctx.Done():
		return "", fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}

	if rand.Float64() < g.FailureRate {
		return "", fmt.Errorf("gateway temporarily unavailable")
	}

	// Format: MOCK-YYYYMMDD-HHMMSS-XXXXX
	ref := fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000))
	return ref, nil
}

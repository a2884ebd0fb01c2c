package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage/memory"
)

var poolTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPool(t *testing.T, addresses ...string) *Pool {
	t.Helper()
	p := NewPoolWithAddresses(memory.NewStore(), map[string][]string{
		"USDT BEP20": addresses,
	})
	p.now = func() time.Time { return poolTime }
	return p
}

func TestPoolLeasesDistinctAddresses(t *testing.T) {
	p := newTestPool(t, "0xaaa", "0xbbb", "0xccc")
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		lease, err := p.Lease(ctx, "USDT BEP20", uuid.New())
		require.NoError(t, err)
		require.False(t, seen[lease.Address], "address %s granted twice", lease.Address)
		require.Equal(t, poolTime.Add(LeaseDuration), lease.ExpiresAt)
		seen[lease.Address] = true
	}
}

func TestPoolExhaustionReportsWait(t *testing.T) {
	p := newTestPool(t, "0xaaa")
	ctx := context.Background()

	_, err := p.Lease(ctx, "USDT BEP20", uuid.New())
	require.NoError(t, err)

	lease, err := p.Lease(ctx, "USDT BEP20", uuid.New())
	require.ErrorIs(t, err, domain.ErrLeaseUnavailable)
	require.NotNil(t, lease)
	require.Empty(t, lease.Address)
	require.Equal(t, LeaseDuration, lease.Wait)
}

func TestPoolConcurrentLeasesAreDistinct(t *testing.T) {
	addresses := []string{"0xaaa", "0xbbb", "0xccc", "0xddd", "0xeee"}
	p := newTestPool(t, addresses...)
	ctx := context.Background()

	results := make(chan *Lease, len(addresses))
	errs := make(chan error, len(addresses))
	var wg sync.WaitGroup
	for i := 0; i < len(addresses); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := p.Lease(ctx, "USDT BEP20", uuid.New())
			if err != nil {
				errs <- err
				return
			}
			results <- lease
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent lease failed: %v", err)
	}
	seen := map[string]bool{}
	for lease := range results {
		require.False(t, seen[lease.Address], "address %s granted twice", lease.Address)
		seen[lease.Address] = true
	}
	require.Len(t, seen, len(addresses))

	// The pool is now fully taken; one more holder has to wait.
	lease, err := p.Lease(ctx, "USDT BEP20", uuid.New())
	require.ErrorIs(t, err, domain.ErrLeaseUnavailable)
	require.Positive(t, lease.Wait)
}

func TestPoolRenewalKeepsAddress(t *testing.T) {
	p := newTestPool(t, "0xaaa", "0xbbb")
	ctx := context.Background()
	holder := uuid.New()

	first, err := p.Lease(ctx, "USDT BEP20", holder)
	require.NoError(t, err)

	// Renewing before expiry returns the same address with a fresh expiry.
	p.now = func() time.Time { return poolTime.Add(time.Minute) }
	second, err := p.Lease(ctx, "USDT BEP20", holder)
	require.NoError(t, err)
	require.Equal(t, first.Address, second.Address)
	require.Equal(t, poolTime.Add(time.Minute+LeaseDuration), second.ExpiresAt)
}

func TestPoolExpiredLeaseFreesAddress(t *testing.T) {
	p := newTestPool(t, "0xaaa")
	ctx := context.Background()

	_, err := p.Lease(ctx, "USDT BEP20", uuid.New())
	require.NoError(t, err)

	p.now = func() time.Time { return poolTime.Add(LeaseDuration + time.Second) }
	lease, err := p.Lease(ctx, "USDT BEP20", uuid.New())
	require.NoError(t, err)
	require.Equal(t, "0xaaa", lease.Address)
}

func TestPoolUnknownNetwork(t *testing.T) {
	p := newTestPool(t, "0xaaa")

	_, err := p.Lease(context.Background(), "Dogecoin", uuid.New())
	require.Error(t, err)
}

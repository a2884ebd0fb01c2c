// Package wallet arbitrates the shared deposit-address pools. Each network
// has a small fixed list of addresses; a user claims one under a short
// time-to-live lease so that two users are never shown the same address at
// the same time.
package wallet

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// LeaseDuration is how long a granted address stays reserved.
const LeaseDuration = 5 * time.Minute

// Lease is the outcome of a reservation attempt. When no address is free,
// Wait estimates how long until the next lease expires; callers re-poll.
type Lease struct {
	Network   string        `json:"network"`
	Address   string        `json:"address,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitempty"`
	Wait      time.Duration `json:"-"`
}

// Pool grants exclusive address leases per network. Leases persist in
// storage, so the pool survives restarts; the per-network mutex serializes
// the sweep-select-commit sequence so two concurrent calls cannot claim the
// same address.
type Pool struct {
	store     storage.Store
	addresses map[string][]string
	mu        map[string]*sync.Mutex
	now       func() time.Time
}

func NewPool(store storage.Store) *Pool {
	return NewPoolWithAddresses(store, DefaultAddresses())
}

func NewPoolWithAddresses(store storage.Store, addresses map[string][]string) *Pool {
	locks := make(map[string]*sync.Mutex, len(addresses))
	for network := range addresses {
		locks[network] = &sync.Mutex{}
	}
	return &Pool{
		store:     store,
		addresses: addresses,
		mu:        locks,
		now:       time.Now,
	}
}

// Lease reserves an address on the network for the holder. A holder that
// already owns an active lease on the network gets the same address back with
// a refreshed expiry. When every address is taken, it returns
// domain.ErrLeaseUnavailable and a Lease whose Wait holds the minimum time
// until one frees up.
func (p *Pool) Lease(ctx context.Context, network string, holderID uuid.UUID) (*Lease, error) {
	addresses, ok := p.addresses[network]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", network)
	}

	mu := p.mu[network]
	mu.Lock()
	defer mu.Unlock()

	now := p.now()
	var lease *Lease
	err := p.store.RunInTx(ctx, func(q storage.Querier) error {
		if err := q.DeleteExpiredLeases(ctx, network, now); err != nil {
			return err
		}
		active, err := q.ListActiveLeases(ctx, network, now)
		if err != nil {
			return err
		}

		taken := make(map[string]domain.WalletLease, len(active))
		for _, l := range active {
			taken[l.Address] = l
		}

		var free []string
		for _, addr := range addresses {
			existing, held := taken[addr]
			if !held || existing.HolderID == holderID {
				free = append(free, addr)
			}
		}

		if len(free) == 0 {
			wait := minRemaining(active, now)
			lease = &Lease{Network: network, Wait: wait}
			return domain.ErrLeaseUnavailable
		}

		// Prefer renewing the holder's own lease over grabbing a fresh
		// address.
		address := free[rand.Intn(len(free))]
		for _, l := range active {
			if l.HolderID == holderID {
				address = l.Address
				break
			}
		}

		expires := now.Add(LeaseDuration)
		if err := q.UpsertLease(ctx, &domain.WalletLease{
			Network:   network,
			Address:   address,
			HolderID:  holderID,
			ExpiresAt: expires,
		}); err != nil {
			return err
		}
		lease = &Lease{Network: network, Address: address, ExpiresAt: expires}
		return nil
	})
	if err != nil {
		if lease != nil && lease.Wait > 0 {
			observability.IncrementPoolExhausted(network)
			zap.L().Debug("wallet pool exhausted",
				zap.String("network", network),
				zap.Duration("wait", lease.Wait),
			)
			return lease, domain.ErrLeaseUnavailable
		}
		return nil, err
	}
	return lease, nil
}

func minRemaining(active []domain.WalletLease, now time.Time) time.Duration {
	min := time.Duration(0)
	for _, l := range active {
		remaining := l.ExpiresAt.Sub(now)
		if remaining <= 0 {
			continue
		}
		if min == 0 || remaining < min {
			min = remaining
		}
	}
	if min == 0 {
		min = time.Second
	}
	return min
}

// Package ownertrack implements the second pipeline stage: a persistent,
// cross-transaction record of which wallet owns each token account. The
// assembler keeps its own single-mint bookkeeping for the common case;
// this package is the fallback it reaches for when an instruction names a
// token account that bookkeeping has not seen initialized, because its
// InitializeAccount was replayed for a different mint.
package ownertrack

import (
	"sync"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// Tracker is a concurrency-safe map from token account to current owner.
// One Tracker is shared for an entire pipeline run, across every mint's
// worker, since a token account's owner is meaningful independent of
// which mint it happens to hold at any given moment.
type Tracker struct {
	mu        sync.RWMutex
	ownerOf   map[ledger.Pubkey]ledger.Pubkey
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{ownerOf: make(map[ledger.Pubkey]ledger.Pubkey)}
}

// OwnerOf implements assemble.OwnerResolver.
func (t *Tracker) OwnerOf(account ledger.Pubkey) (ledger.Pubkey, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	owner, ok := t.ownerOf[account]
	return owner, ok
}

// SetOwner records account as currently held by owner, overwriting
// whatever was recorded before. The assembler calls it whenever it replays
// an InitializeAccount{,2,3} or a successful ownership-changing
// instruction; it only replays instructions the partitioner assigned to a
// mint, so accounts of mints the partitioner rejected are never recorded.
func (t *Tracker) SetOwner(account, owner ledger.Pubkey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ownerOf[account] = owner
}

// Remove forgets account, called on CloseAccount: a closed account index
// can be reused by a later, unrelated InitializeAccount in the same slot
// range, and a stale owner record must not leak into that account's new
// life.
func (t *Tracker) Remove(account ledger.Pubkey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ownerOf, account)
}

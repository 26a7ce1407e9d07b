package repository

import (
	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/listing"
)

// memWhitelist is the journaled per-listing buyer whitelist store.
type memWhitelist struct {
	maxBatch int
	members  map[domain.ListingId]map[domain.Address]bool
	journal  []func()
}

func NewBuyerWhitelist(maxBatch int) *memWhitelist {
	return &memWhitelist{
		maxBatch: maxBatch,
		members:  map[domain.ListingId]map[domain.Address]bool{},
	}
}

var (
	_ listing.WhitelistRepo = (*memWhitelist)(nil)
	_ domain.Snapshotter    = (*memWhitelist)(nil)
)

func (r *memWhitelist) Snapshot() int {
	return len(r.journal)
}

func (r *memWhitelist) RevertToSnapshot(rev int) {
	if rev < 0 || rev > len(r.journal) {
		return
	}
	for i := len(r.journal) - 1; i >= rev; i-- {
		r.journal[i]()
	}
	r.journal = r.journal[:rev]
}

func (r *memWhitelist) IsWhitelisted(c ctx.Ctx, id domain.ListingId, buyer domain.Address) (bool, error) {
	return r.members[id][buyer.ToLower()], nil
}

func (r *memWhitelist) AddMany(c ctx.Ctx, id domain.ListingId, buyers []domain.Address) error {
	if len(buyers) > r.maxBatch {
		return xerrors.Errorf("batch of %d over limit %d: %w", len(buyers), r.maxBatch, domain.ErrExceedsMaxBatchSize)
	}
	m, hadList := r.members[id]
	if !hadList {
		m = map[domain.Address]bool{}
		r.members[id] = m
	}
	var added []domain.Address
	for _, b := range buyers {
		b = b.ToLower()
		if !m[b] {
			m[b] = true
			added = append(added, b)
		}
	}
	r.journal = append(r.journal, func() {
		for _, b := range added {
			delete(m, b)
		}
		if !hadList {
			delete(r.members, id)
		}
	})
	return nil
}

func (r *memWhitelist) RemoveMany(c ctx.Ctx, id domain.ListingId, buyers []domain.Address) error {
	if len(buyers) > r.maxBatch {
		return xerrors.Errorf("batch of %d over limit %d: %w", len(buyers), r.maxBatch, domain.ErrExceedsMaxBatchSize)
	}
	m, ok := r.members[id]
	if !ok {
		return nil
	}
	var removed []domain.Address
	for _, b := range buyers {
		b = b.ToLower()
		if m[b] {
			delete(m, b)
			removed = append(removed, b)
		}
	}
	r.journal = append(r.journal, func() {
		for _, b := range removed {
			m[b] = true
		}
	})
	return nil
}

func (r *memWhitelist) Clear(c ctx.Ctx, id domain.ListingId) error {
	prev, had := r.members[id]
	if !had {
		return nil
	}
	delete(r.members, id)
	r.journal = append(r.journal, func() { r.members[id] = prev })
	return nil
}

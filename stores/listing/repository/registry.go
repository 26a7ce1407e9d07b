package repository

import (
	"sort"
	"sync"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/listing"
)

type itemKey struct {
	collection domain.Address
	tokenId    domain.TokenId
}

// memRegistry is the authoritative in-memory listing registry plus the
// erc721 uniqueness reverse index. Every mutation is journaled so the
// lifecycle usecase can revert a half-applied call. The lifecycle guard
// serializes writers; the mutex makes reads safe against them.
type memRegistry struct {
	mu        sync.RWMutex
	nextId    domain.ListingId
	listings  map[domain.ListingId]listing.Listing
	unique721 map[itemKey]domain.ListingId
	journal   []func()
}

func NewRegistry() *memRegistry {
	return &memRegistry{
		nextId:    1,
		listings:  map[domain.ListingId]listing.Listing{},
		unique721: map[itemKey]domain.ListingId{},
	}
}

var (
	_ listing.Repo       = (*memRegistry)(nil)
	_ domain.Snapshotter = (*memRegistry)(nil)
)

func (r *memRegistry) Snapshot() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.journal)
}

func (r *memRegistry) RevertToSnapshot(rev int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rev < 0 || rev > len(r.journal) {
		return
	}
	for i := len(r.journal) - 1; i >= rev; i-- {
		r.journal[i]()
	}
	r.journal = r.journal[:rev]
}

func (r *memRegistry) NextId(c ctx.Ctx) (domain.ListingId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	r.journal = append(r.journal, func() { r.nextId = id })
	return id, nil
}

func (r *memRegistry) FindOne(c ctx.Ctx, id domain.ListingId) (*listing.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.listings[id]; ok {
		cp := l
		return &cp, nil
	}
	return nil, nil
}

func (r *memRegistry) Put(c ctx.Ctx, l *listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.listings[l.ListingId]
	r.listings[l.ListingId] = *l
	r.journal = append(r.journal, func() {
		if had {
			r.listings[l.ListingId] = prev
		} else {
			delete(r.listings, l.ListingId)
		}
	})
	return nil
}

func (r *memRegistry) Delete(c ctx.Ctx, id domain.ListingId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.listings[id]
	if !had {
		return nil
	}
	delete(r.listings, id)
	r.journal = append(r.journal, func() { r.listings[id] = prev })
	return nil
}

func (r *memRegistry) FindAll(c ctx.Ctx) ([]*listing.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*listing.Listing, 0, len(r.listings))
	for id := range r.listings {
		l := r.listings[id]
		res = append(res, &l)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ListingId < res[j].ListingId })
	return res, nil
}

func (r *memRegistry) FindByItem(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) ([]*listing.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*listing.Listing
	for id := range r.listings {
		l := r.listings[id]
		if l.TokenAddress.Equals(collection) && l.TokenId == tokenId {
			res = append(res, &l)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ListingId < res[j].ListingId })
	return res, nil
}

func (r *memRegistry) GetUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.ListingId, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.unique721[itemKey{collection.ToLower(), tokenId}]
	return id, ok, nil
}

func (r *memRegistry) SetUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId, id domain.ListingId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := itemKey{collection.ToLower(), tokenId}
	prev, had := r.unique721[key]
	r.unique721[key] = id
	r.journal = append(r.journal, func() {
		if had {
			r.unique721[key] = prev
		} else {
			delete(r.unique721, key)
		}
	})
	return nil
}

func (r *memRegistry) ClearUnique721(c ctx.Ctx, collection domain.Address, tokenId domain.TokenId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := itemKey{collection.ToLower(), tokenId}
	prev, had := r.unique721[key]
	if !had {
		return nil
	}
	delete(r.unique721, key)
	r.journal = append(r.journal, func() { r.unique721[key] = prev })
	return nil
}

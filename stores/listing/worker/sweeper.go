package worker

import (
	"time"

	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	"github.com/vendue/goapi/base/backoff"
	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/base/metrics"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/listing"
)

type SweeperCfg struct {
	Listing     listing.UseCase
	Interval    time.Duration
	Concurrency int
}

// Sweeper periodically probes every listing and deletes the ones whose
// purchase preconditions no longer hold. Probing is permissionless, so the
// sweep needs no identity.
type Sweeper struct {
	listing     listing.UseCase
	interval    time.Duration
	concurrency int
	met         metrics.Service
}

func NewSweeper(cfg *SweeperCfg) *Sweeper {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{
		listing:     cfg.Listing,
		interval:    cfg.Interval,
		concurrency: concurrency,
		met:         metrics.New("sweeper"),
	}
}

// Run blocks until c is done, sweeping every interval and backing off
// exponentially while listing enumeration fails.
func (s *Sweeper) Run(c ctx.Ctx) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	retry := backoff.NewExponential(s.interval, 10*s.interval)

	for {
		select {
		case <-c.Done():
			return
		case <-ticker.C:
		}

		if err := s.sweep(c); err != nil {
			c.WithField("err", err).Error("sweep failed")
			if err := retry.Backoff(c); err != nil {
				return
			}
			continue
		}
		retry.Reset()
	}
}

func (s *Sweeper) sweep(c ctx.Ctx) error {
	defer s.met.BumpTime("sweep.time").End()

	listings, err := s.listing.GetListings(c)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return nil
	}

	b := goroutines.NewBatch(s.concurrency, goroutines.WithBatchSize(len(listings)))
	defer b.Close()
	for _, l := range listings {
		id := l.ListingId
		b.Queue(func() (interface{}, error) {
			err := s.listing.CleanListing(c, id)
			switch {
			case err == nil:
				return true, nil
			case xerrors.Is(err, domain.ErrListingStillValid),
				xerrors.Is(err, domain.ErrNotListed),
				xerrors.Is(err, domain.ErrReentrantCall):
				// still valid, already purchased or a concurrent
				// mutating call won; nothing to do
				return false, nil
			default:
				return false, err
			}
		})
	}
	b.QueueComplete()

	cleaned := 0
	for result := range b.Results() {
		if err := result.Error(); err != nil {
			c.WithFields(log.Fields{"err": err}).Warn("clean listing failed")
			s.met.BumpSum("clean.err", 1)
			continue
		}
		if result.Value().(bool) {
			cleaned++
		}
	}
	if cleaned > 0 {
		s.met.BumpSum("cleaned", float64(cleaned))
		c.WithFields(log.Fields{
			"total":   len(listings),
			"cleaned": cleaned,
		}).Info("swept stale listings")
	}
	return nil
}

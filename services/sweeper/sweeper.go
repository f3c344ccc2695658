package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"tradepost/models"
	"tradepost/utils"

	"go.uber.org/zap"
)

// ErrSweepInProgress means a sweep was requested while another one is still
// running in this process.
var ErrSweepInProgress = errors.New("sweep already in progress")

// ExpiredSource yields listings that are past their time-to-live.
type ExpiredSource interface {
	FindExpired(ctx context.Context, cutoff time.Time) ([]models.Listing, error)
}

// Expirer runs the sweepExpire transition for a single listing.
type Expirer interface {
	ExpireOne(ctx context.Context, l models.Listing) error
}

// Failure records one listing the sweep could not expire.
type Failure struct {
	ListingID string `json:"listingId"`
	Reason    string `json:"reason"`
}

// Result summarizes a completed sweep.
type Result struct {
	Processed int       `json:"processed"`
	Failed    []Failure `json:"failed"`
}

// Sweeper finds listings past their TTL and expires them one by one. Sweeps
// are idempotent: an already archived listing drops out of the expired query
// and is never reprocessed.
type Sweeper struct {
	Source    ExpiredSource
	Lifecycle Expirer
	TTL       time.Duration

	running atomic.Bool
}

// Sweep expires every listing past its TTL. A failure on one listing is
// recorded and skipped so the batch always runs to completion. Only one
// sweep runs at a time per process.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	logger := utils.GetLogger()
	cutoff := time.Now().Add(-s.TTL)

	expired, err := s.Source.FindExpired(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, l := range expired {
		if err := s.Lifecycle.ExpireOne(ctx, l); err != nil {
			// Skipped, retried on the next sweep.
			logger.Warn("failed to expire listing",
				zap.String("listingId", l.ID), zap.Error(err))
			result.Failed = append(result.Failed, Failure{ListingID: l.ID, Reason: err.Error()})
			continue
		}
		result.Processed++
	}

	if result.Processed > 0 || len(result.Failed) > 0 {
		logger.Info("expiration sweep completed",
			zap.Int("processed", result.Processed),
			zap.Int("failed", len(result.Failed)))
	}
	return result, nil
}

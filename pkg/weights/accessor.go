package weights

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/metrics"
	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// Accessor reads versioned weights from the weight store, degrading to the
// default map when the store is empty or unreachable. Scoring must keep
// working through a storage outage; only write paths are allowed to fail.
type Accessor struct {
	store service.WeightStore
}

// NewAccessor creates a weight accessor over a store.
func NewAccessor(store service.WeightStore) *Accessor {
	return &Accessor{store: store}
}

// Store exposes the underlying weight store for write-path collaborators.
func (a *Accessor) Store() service.WeightStore {
	return a.store
}

// Current returns the weight map of the highest persisted version. It
// never returns an error: with no versions it returns the defaults, and on
// storage failure it logs, bumps the fallback counter, and returns the
// defaults. The fallback is deliberately loud — masking a storage outage
// as "no weights configured" is a known support trap.
func (a *Accessor) Current(ctx context.Context) factor.Weights {
	_, w := a.CurrentVersion(ctx)
	return w
}

// CurrentVersion returns the latest version number alongside its weights.
// Version 0 means the defaults are in effect.
func (a *Accessor) CurrentVersion(ctx context.Context) (int, factor.Weights) {
	version, err := a.store.GetLatestVersion(ctx)
	if err != nil {
		logrus.Warnf("weight store unreachable, falling back to default weights: %v", err)
		metrics.WeightFallbacksTotal.Inc()
		return 0, DefaultWeights()
	}
	if version == 0 {
		logrus.Debug("no weight version persisted yet, using default weights")
		return 0, DefaultWeights()
	}

	w, err := a.store.GetWeights(ctx, version)
	if err != nil {
		logrus.Warnf("failed to read weight version %d, falling back to default weights: %v", version, err)
		metrics.WeightFallbacksTotal.Inc()
		return 0, DefaultWeights()
	}

	return version, w
}

// CurrentStrict returns the latest version and weights, propagating
// storage failures instead of degrading. Write paths use this: an audit
// entry that records the defaults as the prior weights during an outage
// would silently corrupt the trail. An empty store is not a failure;
// version 0 with the defaults is the true baseline.
func (a *Accessor) CurrentStrict(ctx context.Context) (int, factor.Weights, error) {
	version, err := a.store.GetLatestVersion(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read latest weight version: %w", err)
	}
	if version == 0 {
		return 0, DefaultWeights(), nil
	}

	w, err := a.store.GetWeights(ctx, version)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read weight version %d: %w", version, err)
	}

	return version, w, nil
}

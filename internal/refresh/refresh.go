// Package refresh keeps the restaurant read cache warm so browse pages stay
// fast between user-driven fetches.
package refresh

import (
	"context"
	"time"

	"github.com/example/tablebook/internal/cache"
	"github.com/example/tablebook/internal/platform"
	"github.com/rs/zerolog/log"
)

type Refresher struct {
	Platform *platform.Client
	Cache    *cache.Cache
	Interval time.Duration
}

// Run ticks until ctx is cancelled, starting with an immediate warm-up pass.
func (r *Refresher) Run(ctx context.Context) error {
	if !r.Cache.Enabled() {
		log.Info().Msg("refresh: cache disabled, not running")
		<-ctx.Done()
		return ctx.Err()
	}

	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	rs, err := r.Platform.SearchRestaurants(ctx, platform.SearchQuery{})
	if err != nil {
		log.Warn().Err(err).Msg("refresh: restaurant listing failed")
		return
	}

	r.Cache.SetJSON(ctx, cache.SearchKey("", ""), rs)
	for _, rest := range rs {
		r.Cache.SetJSON(ctx, cache.RestaurantKey(rest.ID), rest)
	}
	log.Debug().Int("restaurants", len(rs)).Msg("refresh: cache warmed")
}

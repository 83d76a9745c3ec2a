package stats

import (
	"context"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

// LoadResult is the outcome of one snapshot load.
type LoadResult struct {
	Token    uint64
	Snapshot Snapshot
	Err      error
}

// CacheClient loads the server's cached snapshot. Every load takes a fresh
// generation token from the State; a load that completes after a newer one
// was issued comes back as a CANCELLED error.
type CacheClient struct {
	sched  sched.Scheduler
	source SnapshotSource
	state  *State
	log    logger.Logger
}

// NewCacheClient creates a cache client that issues tokens from state.
func NewCacheClient(s sched.Scheduler, source SnapshotSource, state *State, log logger.Logger) *CacheClient {
	if log == nil {
		log = logger.NewEnvLogger("[cache]")
	}
	return &CacheClient{sched: s, source: source, state: state, log: log}
}

// Load starts a snapshot request and returns its token. done runs on the loop
// when the request completes. Load never changes the displayed entities;
// callers decide whether to apply the result.
func (c *CacheClient) Load(done func(LoadResult)) uint64 {
	token := c.state.nextGeneration()
	c.log.Debug("load #%d started", token)

	c.sched.Go(func(ctx context.Context) func() {
		snap, err := c.source.Snapshot(ctx)
		return func() {
			res := LoadResult{Token: token, Snapshot: snap, Err: err}
			if !c.state.Current(token) {
				c.log.Debug("load #%d superseded by #%d", token, c.state.Generation())
				res = LoadResult{
					Token: token,
					Err:   errors.New(errors.ErrCancelled, "Superseded by a newer load", ""),
				}
			} else if err != nil {
				c.log.Debug("load #%d failed: %s", token, errors.CodeOf(err))
			}
			done(res)
		}
	})
	return token
}

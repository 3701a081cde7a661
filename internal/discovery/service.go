// Package discovery wires the classify → dispatch → rank pipeline together
// and applies the cached-listing fallback when the registry is down.
package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/kamusis/scout-cli/internal/dispatch"
	"github.com/kamusis/scout-cli/internal/intent"
	"github.com/kamusis/scout-cli/internal/rank"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/kamusis/scout-cli/internal/session"
)

// Service runs discovery requests. The registry client and cache are shared
// across sessions; the per-session state travels in the Store passed to
// Discover, so concurrent sessions stay fully isolated.
type Service struct {
	Dispatcher *dispatch.Dispatcher
	Cache      *registry.Cache
	Weights    rank.Weights
	TopK       int
}

// Request is one discovery call.
type Request struct {
	Query    string
	ShowMore bool // suspend the novelty filter for this call
	TopK     int  // zero means the service default
}

// Response is a completed discovery call. An empty Results slice is a valid
// outcome, not an error; callers should offer query broadening.
type Response struct {
	Intent     intent.State
	Classified bool
	Confidence float64
	Strategy   dispatch.Strategy
	SentQuery  string
	Results    []rank.ScoredSkill
	Pipeline   *dispatch.Pipeline

	// Stale is set when the registry was unavailable and results came from
	// the cached popular listing instead.
	Stale    bool
	CachedAt time.Time

	// Surfaced are the entries newly recorded into the session by this call.
	Surfaced []session.Entry
}

// Discover classifies the query, dispatches the matching strategy, ranks the
// candidates against the session and records what was surfaced.
//
// When the registry is unavailable after retry, the cached popular listing
// stands in (marked Stale); with no cache the error wraps
// registry.ErrUnavailable.
func (s *Service) Discover(ctx context.Context, req Request, sess *session.Store) (*Response, error) {
	resp := &Response{}

	cls, ok := intent.Classify(req.Query)
	resp.Classified = ok
	if ok {
		resp.Intent = cls.State
		resp.Confidence = cls.Confidence
	} else {
		// Ambiguous or empty classification is not an error; browse instead.
		resp.Intent = intent.Exploratory
	}

	var candidates []registry.SkillRecord
	disp, err := s.Dispatcher.Dispatch(ctx, resp.Intent, ok, req.Query)
	switch {
	case err == nil:
		resp.Strategy = disp.Strategy
		resp.SentQuery = disp.Query
		resp.Pipeline = disp.Pipeline
		candidates = disp.Records
		if disp.Strategy == dispatch.StrategyExploratory && len(candidates) > 0 && s.Cache != nil {
			// Refresh the fallback listing while the registry is healthy.
			_ = s.Cache.Store(candidates, "registry")
		}
	case errors.Is(err, registry.ErrUnavailable):
		if s.Cache == nil {
			return nil, err
		}
		cached, at, cerr := s.Cache.Load()
		if cerr != nil || len(cached) == 0 {
			return nil, err
		}
		resp.Strategy = dispatch.StrategyExploratory
		resp.Stale = true
		resp.CachedAt = at
		candidates = cached
	default:
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.TopK
	}
	resp.Results = rank.Rank(candidates, req.Query, sess, rank.Options{
		Weights:  s.Weights,
		TopK:     topK,
		ShowMore: req.ShowMore,
	})

	if sess != nil {
		surfaced := make([]registry.SkillRecord, 0, len(resp.Results))
		for _, r := range resp.Results {
			surfaced = append(surfaced, r.Record)
		}
		resp.Surfaced = sess.Record(surfaced)
	}
	return resp, nil
}

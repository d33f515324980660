package canonical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// Searcher is the external-tracker search surface the resolver needs.
// Implementations must exclude pull requests from the returned
// candidates.
type Searcher interface {
	SearchCandidates(ctx context.Context, owner, repo, query string) ([]types.IssueCandidate, error)
}

// ResolverError wraps a search failure during canonical-id resolution.
// No safe partial answer exists when the search itself fails, so the
// error propagates to the caller. The wrapped error carries no
// credential material.
type ResolverError struct {
	Op  string
	Err error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("canonical-id resolution failed during %s: %v", e.Op, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// Resolver finds external issues matching a canonical identifier.
type Resolver struct {
	searcher Searcher
	log      *zap.Logger
}

// NewResolver creates a resolver backed by the given search client.
func NewResolver(searcher Searcher, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{searcher: searcher, log: log}
}

// Resolve searches one repository for an issue carrying the canonical
// id. Candidates are evaluated in ascending issue-number order so the
// result never depends on the search service's ordering. Among matches, the lowest-numbered body match
// wins over any title match. Repeated calls against unchanged external
// state return identical results.
func (r *Resolver) Resolve(ctx context.Context, owner, repo, canonicalID string) (types.CanonicalMatch, error) {
	id := strings.TrimSpace(canonicalID)
	if id == "" {
		return types.CanonicalMatch{}, types.NewValidationError("canonical_id", "must not be empty")
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" {
		return types.CanonicalMatch{}, types.NewValidationError("repository", "owner and repo must not be empty")
	}

	query := searchQuery(id)
	candidates, err := r.searcher.SearchCandidates(ctx, owner, repo, query)
	if err != nil {
		return types.CanonicalMatch{}, &ResolverError{Op: "search", Err: err}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Number < candidates[j].Number
	})

	var titleMatch *types.IssueCandidate
	for i := range candidates {
		c := candidates[i]
		matched, by := CheckMatch(c, id)
		if !matched {
			continue
		}
		if by == types.MarkerBody {
			r.log.Debug("canonical id resolved",
				zap.String("canonical_id", id),
				zap.Int("issue_number", c.Number),
				zap.String("matched_by", string(by)))
			return foundMatch(c, types.MarkerBody), nil
		}
		if titleMatch == nil {
			titleMatch = &candidates[i]
		}
	}

	if titleMatch != nil {
		return foundMatch(*titleMatch, types.MarkerTitle), nil
	}

	r.log.Debug("canonical id not found",
		zap.String("canonical_id", id),
		zap.Int("candidates", len(candidates)))
	return types.CanonicalMatch{Mode: types.MatchNotFound}, nil
}

func foundMatch(c types.IssueCandidate, by types.MarkerLocation) types.CanonicalMatch {
	return types.CanonicalMatch{
		Mode:        types.MatchFound,
		IssueNumber: c.Number,
		IssueURL:    c.URL,
		MatchedBy:   by,
	}
}

// searchQuery builds the repository-scoped free-text query for a
// canonical id. The repo and issue-only restrictions are applied by
// the Searcher implementation.
func searchQuery(id string) string {
	return fmt.Sprintf("%q in:title,body", id)
}

// Package pairing implements the search-and-pair handshake: resolving a
// work-item identifier to candidate owners and driving the negotiation
// between initiator and responder until a session exists or the flow dies.
package pairing

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"floorlink/contract"
	"floorlink/domain"
	"floorlink/errors"
)

// Resolver turns a raw identifier into the distinct owners of matching
// records. Pure query: it holds no state between calls.
type Resolver struct {
	lookup    contract.RecordLookup
	directory contract.Directory
}

func NewResolver(lookup contract.RecordLookup, directory contract.Directory) *Resolver {
	return &Resolver{lookup: lookup, directory: directory}
}

// Resolve normalizes the identifier, queries the record store and groups the
// matches by owner, one candidate per distinct owner id. Records owned by
// the initiator are dropped: you cannot pair with yourself.
//
// The returned slice is sorted by owner id so selection options are stable
// across calls. Zero foreign owners yields ErrNotFound; when the only
// matches were the initiator's own records, the error additionally matches
// ErrOwnRecordsOnly so the caller can word the notice accordingly.
func (r *Resolver) Resolve(ctx context.Context, initiator domain.ParticipantID, rawIdentifier string) ([]domain.Candidate, error) {
	norm := domain.NormalizeIdentifier(rawIdentifier)
	if norm == "" {
		return nil, fmt.Errorf("%w: empty identifier", errors.ErrNotFound)
	}

	records, err := r.lookup.FindOwnersByIdentifier(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("record lookup for %q: %w", norm, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %q", errors.ErrNotFound, norm)
	}

	foreign := lo.Filter(records, func(rec domain.WorkItemRecord, _ int) bool {
		return rec.Owner != initiator
	})
	if len(foreign) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrOwnRecordsOnly, norm)
	}

	byOwner := lo.GroupBy(foreign, func(rec domain.WorkItemRecord) domain.ParticipantID {
		return rec.Owner
	})

	candidates := make([]domain.Candidate, 0, len(byOwner))
	for owner, recs := range byOwner {
		candidates = append(candidates, domain.Candidate{
			Owner:       owner,
			DisplayName: r.displayName(ctx, owner),
			Records:     recs,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Owner < candidates[j].Owner
	})
	return candidates, nil
}

func (r *Resolver) displayName(ctx context.Context, id domain.ParticipantID) string {
	name, err := r.directory.GetDisplayName(ctx, id)
	if err != nil || name == "" {
		return fmt.Sprintf("Participant %s", id)
	}
	return name
}

// ErrOwnRecordsOnly narrows ErrNotFound: records matched, but all of them
// belong to the initiator. errors.Is(err, errors.ErrNotFound) still holds.
var ErrOwnRecordsOnly = fmt.Errorf("%w: only own records", errors.ErrNotFound)

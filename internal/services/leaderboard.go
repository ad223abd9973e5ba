package services

import (
	"context"
	"sort"
	"strings"
	"time"
)

// DefaultLeaderboardSize is used when the caller asks for a
// non-positive number of entries.
const DefaultLeaderboardSize = 25

// LeaderboardEntry is the read-only ranking projection over one
// points account. Recomputed fresh on every call, never persisted.
type LeaderboardEntry struct {
	SubmitterID string    `json:"submitter_id"`
	Points      int       `json:"points"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeaderboardService produces a deterministically ordered, size-bounded
// ranking over all points accounts. Safe for concurrent use.
type LeaderboardService struct {
	store LeaderboardStore
}

func NewLeaderboardService(store LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// Top returns the first n contributors ordered by points descending,
// then submitter identifier ascending (case-insensitive), then
// last-updated descending. Each call builds a fresh slice, so callers
// cannot corrupt another caller's view.
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}

	accounts, err := s.store.AllPointsAccounts(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, acct := range accounts {
		entries = append(entries, LeaderboardEntry{
			SubmitterID: acct.SubmitterID,
			Points:      acct.CurrentPoints,
			UpdatedAt:   acct.LastUpdated,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		idI := strings.ToLower(entries[i].SubmitterID)
		idJ := strings.ToLower(entries[j].SubmitterID)
		if idI != idJ {
			return idI < idJ
		}
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

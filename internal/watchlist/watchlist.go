// Package watchlist reads which members watch which companies.
package watchlist

import (
	"context"
	"fmt"

	"github.com/stacklok/posting-sync/internal/db/sqlc"
)

//go:generate mockgen -destination=mocks/mock_membership_source.go -package=mocks -source=watchlist.go MembershipSource

// MembershipSource answers watchlist membership queries
type MembershipSource interface {
	// MembersWatching returns the watching member ids per company id.
	// Companies nobody watches are absent from the map.
	MembersWatching(ctx context.Context, companyIDs []string) (map[string][]string, error)
}

// DBMembershipSource reads memberships from Postgres
type DBMembershipSource struct {
	db sqlc.DBTX
}

// NewDBMembershipSource creates a MembershipSource on db
func NewDBMembershipSource(db sqlc.DBTX) *DBMembershipSource {
	return &DBMembershipSource{db: db}
}

// MembersWatching implements MembershipSource
func (s *DBMembershipSource) MembersWatching(ctx context.Context, companyIDs []string) (map[string][]string, error) {
	companyIDs = uniqueNonEmpty(companyIDs)
	if len(companyIDs) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := sqlc.New(s.db).ListWatchersByCompanyIDs(ctx, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers: %w", err)
	}

	result := make(map[string][]string)
	for _, row := range rows {
		result[row.CompanyID] = append(result[row.CompanyID], row.MemberID)
	}
	return result, nil
}

// Watch adds a membership. Adding an existing membership is a no-op.
func (s *DBMembershipSource) Watch(ctx context.Context, memberID, companyID string) error {
	err := sqlc.New(s.db).UpsertWatchlistMembership(ctx, sqlc.UpsertWatchlistMembershipParams{
		MemberID:  memberID,
		CompanyID: companyID,
	})
	if err != nil {
		return fmt.Errorf("failed to add watchlist membership: %w", err)
	}
	return nil
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package sync

import "github.com/stacklok/posting-sync/internal/provider"

// postingDiff splits a fetch against the ids stored for the keyword
type postingDiff struct {
	// fresh postings have no stored row for the keyword
	fresh []provider.Posting
	// known ids were fetched and are already stored
	known []string
	// missing ids are stored but were not fetched
	missing []string
}

func diffPostings(fetched []provider.Posting, stored []string) postingDiff {
	storedSet := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		storedSet[id] = struct{}{}
	}

	var d postingDiff
	fetchedSet := make(map[string]struct{}, len(fetched))
	for _, p := range fetched {
		if _, dup := fetchedSet[p.ExternalID]; dup {
			continue
		}
		fetchedSet[p.ExternalID] = struct{}{}

		if _, ok := storedSet[p.ExternalID]; ok {
			d.known = append(d.known, p.ExternalID)
		} else {
			d.fresh = append(d.fresh, p)
		}
	}

	for _, id := range stored {
		if _, ok := fetchedSet[id]; !ok {
			d.missing = append(d.missing, id)
		}
	}
	return d
}

// notInserted returns the ids of fresh postings absent from inserted
func notInserted(fresh, inserted []provider.Posting) []string {
	if len(fresh) == len(inserted) {
		return nil
	}
	insertedSet := make(map[string]struct{}, len(inserted))
	for _, p := range inserted {
		insertedSet[p.ExternalID] = struct{}{}
	}
	var ids []string
	for _, p := range fresh {
		if _, ok := insertedSet[p.ExternalID]; !ok {
			ids = append(ids, p.ExternalID)
		}
	}
	return ids
}

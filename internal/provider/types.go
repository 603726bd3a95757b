// Package provider talks to the external recruiting provider.
//
// Client performs a single keyword search. RetryingFetcher wraps a Client with
// failure classification and a bounded number of attempts, so callers only
// ever see a successful result or a *PermanentFailure.
package provider

import "time"

// Posting is a job posting as returned by the provider
type Posting struct {
	ExternalID string     `json:"external_id"`
	Keyword    string     `json:"keyword"`
	CompanyID  string     `json:"company_id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	LocationID string     `json:"location_id,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// FieldPaths are gjson paths locating posting fields in a search response.
// Item paths are relative to each element of Results.
type FieldPaths struct {
	Results    string
	ExternalID string
	CompanyID  string
	Title      string
	URL        string
	ValidFrom  string
	ValidUntil string
	LocationID string
}

// DefaultFieldPaths matches a response shaped like
// {"results":[{"id":..,"company":{"id":..},"title":..,"url":..,"validFrom":..,"validUntil":..,"location":{"id":..}}]}
func DefaultFieldPaths() FieldPaths {
	return FieldPaths{
		Results:    "results",
		ExternalID: "id",
		CompanyID:  "company.id",
		Title:      "title",
		URL:        "url",
		ValidFrom:  "validFrom",
		ValidUntil: "validUntil",
		LocationID: "location.id",
	}
}

// merge fills empty paths in p from defaults
func (p FieldPaths) merge(defaults FieldPaths) FieldPaths {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return FieldPaths{
		Results:    pick(p.Results, defaults.Results),
		ExternalID: pick(p.ExternalID, defaults.ExternalID),
		CompanyID:  pick(p.CompanyID, defaults.CompanyID),
		Title:      pick(p.Title, defaults.Title),
		URL:        pick(p.URL, defaults.URL),
		ValidFrom:  pick(p.ValidFrom, defaults.ValidFrom),
		ValidUntil: pick(p.ValidUntil, defaults.ValidUntil),
		LocationID: pick(p.LocationID, defaults.LocationID),
	}
}

// Package status holds the per-keyword synchronization status types.
package status

import "time"

// SyncPhase represents the current phase of a keyword synchronization
type SyncPhase string

const (
	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last sync failed
	SyncPhaseFailed SyncPhase = "Failed"

	// SyncPhaseSkipped means another instance held the keyword lock
	SyncPhaseSkipped SyncPhase = "Skipped"
)

// ParseSyncPhase maps a stored phase to a SyncPhase. Unknown values are Failed.
func ParseSyncPhase(s string) SyncPhase {
	switch p := SyncPhase(s); p {
	case SyncPhaseSyncing, SyncPhaseComplete, SyncPhaseFailed, SyncPhaseSkipped:
		return p
	default:
		return SyncPhaseFailed
	}
}

// KeywordSyncStatus is the synchronization state of one keyword
type KeywordSyncStatus struct {
	// Keyword is the provider search keyword
	Keyword string `json:"keyword" yaml:"keyword"`

	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase" yaml:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`

	// LastSuccess is the timestamp of the last successful sync
	LastSuccess *time.Time `json:"lastSuccess,omitempty" yaml:"lastSuccess,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount" yaml:"attemptCount"`

	// FetchedCount is the number of postings returned by the provider
	FetchedCount int `json:"fetchedCount" yaml:"fetchedCount"`

	// InsertedCount is the number of postings that were new
	InsertedCount int `json:"insertedCount" yaml:"insertedCount"`

	// StaleCount is the number of known postings the provider no longer returned
	StaleCount int `json:"staleCount" yaml:"staleCount"`
}

// IsTerminal reports whether the phase is not Syncing
func (s *KeywordSyncStatus) IsTerminal() bool {
	return s != nil && s.Phase != SyncPhaseSyncing
}

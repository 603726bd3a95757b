// Package coordinator schedules sync cycles.
//
// A Coordinator runs RecruitingSynchronizer cycles on a cron schedule
// (robfig/cron, UTC by default), optionally once at start, and on demand
// through TriggerNow. At most one cycle runs per process: scheduled triggers
// that fire while a cycle is still running are skipped, and TriggerNow
// reports ErrCycleInProgress. Cross-instance exclusion is left to the
// per-keyword locks taken by the synchronizer.
//
// Start blocks until its context is cancelled or Stop is called. Stop
// cancels the running cycle's context and waits for it to return.
package coordinator

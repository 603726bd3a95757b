// Package sync reconciles provider postings with the persisted store.
//
// A RecruitingSynchronizer runs one cycle over the configured keywords. Each
// keyword is processed under the distributed lock "sync:<keyword>", so that
// across all service instances exactly one of them fetches and reconciles a
// keyword per cycle. Within a keyword the steps are strictly sequential:
//
//  1. fetch through a provider.Fetcher (bounded retries, permanent failures only)
//  2. diff the fetched external ids against the ids stored for the keyword
//  3. insert new postings, refresh last-seen on known ones, and hand ids that
//     were not returned to the configured StalePolicy
//  4. build one posting-opened notification per watching member and new posting
//  5. persist and push the notifications concurrently
//
// # Failure semantics
//
// Keywords are independent. A keyword whose lock is held elsewhere is
// skipped. A permanent fetch failure or a store failure fails that keyword
// only. A failure of the lock backend itself fails the keyword and stops the
// cycle from starting further keywords, since every other keyword would hit
// the same backend.
//
// Sink failures (notification persistence or push delivery) are logged and
// never fail the keyword: the postings are already stored by then.
//
// Failures are reported as *Error values carrying a Reason. When operator
// subscribers are configured they receive a processing-error notification
// for every failed keyword.
//
// The coordinator subpackage schedules cycles, and the state subpackage
// persists the per-keyword status that each run updates.
package sync

// Package poller implements the Market Snapshot Poller.
//
// The poller:
//   - Fetches the top movers once on Start, then on every interval
//   - Replaces the in-memory snapshot wholesale on each accepted fetch
//   - Stamps every fetch with a sequence number and drops stale results
//   - Keeps the last good snapshot when a fetch fails or is malformed
package poller

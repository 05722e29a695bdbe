// Package jobs tracks asynchronous ingestion runs.
//
// The ingestion pipeline is the only writer for a given job; status pollers
// read point-in-time snapshots. ETA is a decaying moving average of observed
// per-page durations multiplied by the remaining page count, and is nil
// until the first page completes.
package jobs

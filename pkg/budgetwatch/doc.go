// Package budgetwatch polls a remote budgeting API on a fixed interval,
// merges the results with locally edited per-account fields, and publishes a
// consistent, resilient snapshot to consumers.
//
// The refresh engine fetches five resources per cycle through a
// quota-tracked client, filters them to the user's selected subset, merges
// in user-entered credit limits, APRs, and due days, and computes derived
// attention metrics. Failed cycles degrade to the last known good snapshot
// (in memory or from the durable store) with only the health record
// updated; business data already published is never cleared by a failure.
package budgetwatch

// Package staging owns the ephemeral work area used by merge requests.
//
// Each request gets an Area: a uniquely named directory under the configured
// staging root where every intermediate file (resolved inputs, normalized
// streams, concat lists, merged output) is created and tracked. Cleanup runs
// on every exit path of a merge; failures to delete are logged rather than
// escalated. CleanStale is the daemon's safety net for namespaces left behind
// by crashed processes.
package staging

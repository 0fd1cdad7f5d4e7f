// Package merge orchestrates the full merge pipeline: resolve every source
// reference into staging, normalize each to the canonical WAV format,
// concatenate in request order, publish the artifact to storage, and sync
// the catalog. Each request runs inside its own staging area and is recorded
// as one job row.
package merge

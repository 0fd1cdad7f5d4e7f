// Package jobs persists merge job state in SQLite. Each merge request is one
// row that advances through the pipeline statuses; the table doubles as the
// daemon's job history for the CLI and the API.
package jobs

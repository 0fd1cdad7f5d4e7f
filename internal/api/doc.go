// Package api exposes the daemon's HTTP surface: the merge trigger endpoint
// plus read and mutation routes over jobs and the catalog. Routes live under
// /api and are protected by an optional bearer token.
package api

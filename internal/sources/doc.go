// Package sources classifies merge input references and resolves each one
// into a staged, readable file.
//
// A reference arrives as an inline payload (data URI), a remote http/https
// pointer, or a bare local path. Inline and remote forms are written into the
// request's staging area; local paths pass through as a legacy fallback.
// Every resolved file is size-checked against the minimum valid container
// header before any decode is attempted.
package sources

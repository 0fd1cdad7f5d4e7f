// Package notifications delivers merge lifecycle events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Merge and error
// notifications can be toggled independently.
package notifications

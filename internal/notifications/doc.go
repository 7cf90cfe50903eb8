// Package notifications delivers run lifecycle events as ntfy push
// notifications, degrading to a noop service when no topic is
// configured.
package notifications

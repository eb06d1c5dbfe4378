// Package driving provides interfaces for application entry points
// (primary/inbound ports).
//
// These ports are implemented by core services and consumed by the
// CLI, TUI, REST API, webhook and MCP adapters.
package driving

// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// These ports are implemented by adapters under internal/adapters/driven,
// internal/connectors, internal/normalisers and internal/postprocessors.
// Core services depend only on these interfaces, never on the adapters.
package driven

// Package driving provides interfaces for primary/inbound ports.
//
// Driving ports are implemented by the core services and consumed by
// the inbound adapters (REST API, MCP server, CLI).
package driving

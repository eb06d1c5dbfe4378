// Package services implements the driving ports: ingestion
// orchestration, question answering, collection management and system
// status. Services depend only on the driven ports, never on concrete
// adapters.
package services

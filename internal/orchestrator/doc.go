// Package orchestrator drives the deployment pipeline for the advanced-rag
// platform: a fixed ordered list of stages (context resolution, secret
// materialization, vector store provisioning, stateless services, MCP
// gateway), executed exactly once per run.
//
// The orchestrator owns only the control flow. Everything that touches the
// cluster is delegated to collaborators behind small interfaces (cluster
// client, manifest renderer, release installer), which keeps the state
// machine testable without a cluster and keeps every mutation idempotent:
// re-running a full sequence against an already provisioned namespace
// converges without duplicating anything.
package orchestrator

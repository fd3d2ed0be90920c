/*
Package api serves one open project over HTTP. It is the thin REST
skin over pkg/project: every route binds a protocol id or a workflow
document to a call against the underlying *project.Project, and the
project itself stays the single source of truth.

# Architecture

	┌─────────────────── CLIENT (meridian CLI / UI) ─────────────────┐
	│                      pkg/client (net/http + JSON)              │
	└──────────────────────────────┬──────────────────────────────────┘
	                                │  HTTP
	┌───────────────────────────────▼──────────────────────────────────┐
	│                         pkg/api.Server                           │
	│   /api/v1/protocols      CRUD + lifecycle (launch/stop/reset/...)│
	│   /api/v1/workflow       export / import                        │
	│   /api/v1/hosts          host inventory                         │
	│   /metrics, /healthz     prometheus + liveness                  │
	└───────────────────────────────┬──────────────────────────────────┘
	                                │
	┌───────────────────────────────▼──────────────────────────────────┐
	│                          pkg/project.Project                     │
	│         store + registry + scheduler + host configs              │
	└────────────────────────────────────────────────────────────────────┘

A read-only project rejects every request but GET/HEAD, enforced by
readOnlyGuard before a handler ever sees the request.
*/
package api

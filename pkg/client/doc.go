/*
Package client is the application-facing half of pkg/api: a plain Go
struct, no generated stubs, one method per server operation.

# Architecture

	┌────────────────── APPLICATION CODE (cmd/meridian) ─────────────────┐
	│                        pkg/client.Client                           │
	│              net/http.Client + encoding/json, one method           │
	│                      per REST operation                            │
	└───────────────────────────────┬──────────────────────────────────────┘
	                                │  HTTP + JSON
	┌───────────────────────────────▼──────────────────────────────────────┐
	│                           pkg/api.Server                            │
	└──────────────────────────────────────────────────────────────────────┘

Every method returns a plain error; callers decide how to present a
4xx/5xx body (the client folds the response body text into the error).
*/
package client

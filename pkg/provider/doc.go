// Package provider defines the completion-backend abstraction used by the
// engine, together with the transient/non-retryable error taxonomy that
// drives the engine's retry decisions.
package provider

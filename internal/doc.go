// Package internal documents the Growth Compass server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic and domain models
// - storage: database access and repositories (pgx + Postgres)
// - export: CSV serialization for admin downloads
// - auth, audit, config, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal

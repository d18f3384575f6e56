// Package middleware provides the HTTP middleware chain for the directory
// service: request IDs, token authentication, and rate limiting. Throttling
// and authentication live here, in front of the search subsystem, never
// inside it.
package middleware

// Package impl contains the application-specific business rules
// implementations.
package impl

// Backend endpoints, relative to the configured base URL.
const (
	pathBootstrap     = "/sdk/bootstrap"
	pathSessionStart  = "/sdk/sessions/start"
	pathSessionEnd    = "/sdk/sessions/%s/end"
	pathLinks         = "/sdk/links"
	pathResolve       = "/sdk/resolve"
	pathDeferredMatch = "/sdk/deferred/match"
)

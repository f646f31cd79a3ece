// Package scm defines the canonical model and the uniform provider
// contract for talking to source-control back ends.
//
// The Provider interface abstracts repository lookup, pull request
// creation, and push credential generation. Implementations exist for
// GitHub, GitLab, and Bitbucket Cloud in sub-packages; the registry
// sub-package resolves a ProviderKind plus configuration into a live
// instance.
//
// Every failure a provider surfaces is an *Error carrying one of the
// taxonomy codes, and every code classifies as transient or permanent
// so callers can implement a single retry policy regardless of back
// end. This layer never retries internally.
package scm

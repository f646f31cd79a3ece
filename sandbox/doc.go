// Package sandbox is the push-auth consumer side of the
// federation layer: a remote git-executing environment
// that takes a tokenized clone URL produced by the
// session layer and performs the actual clone and push.
// The embedded credential is treated as opaque and is
// redacted from every log line and error.
package sandbox

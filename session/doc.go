// Package session orchestrates source-control operations
// for one session. A session binds a provider kind
// immutably at creation, expands pull request templates,
// and assembles push targets (credential plus tokenized
// clone URL) for the remote git-executing sandbox.
package session

// Package github implements the scm.Provider contract
// against the GitHub REST API using google/go-github.
package github

package scm

import "fmt"

// ProviderKind identifies one source-control back end. The
// set is closed: adding a provider means adding a constant
// here, an entry in every table keyed by the kind, and a
// registry case. Kinds are never created at runtime.
//
// A session stores its kind once at creation and never
// changes it afterwards.
type ProviderKind string

const (
	// GitHub covers github.com and GitHub Enterprise.
	GitHub ProviderKind = "github"
	// GitLab covers gitlab.com and self-managed GitLab.
	GitLab ProviderKind = "gitlab"
	// Bitbucket covers Bitbucket Cloud.
	Bitbucket ProviderKind = "bitbucket"
	// Gitea is a recognized member of the set without an
	// implementation. The registry reports it as
	// configured but not implemented.
	Gitea ProviderKind = "gitea"
)

// knownKinds is the closed provider set.
var knownKinds = map[ProviderKind]struct{}{
	GitHub:    {},
	GitLab:    {},
	Bitbucket: {},
	Gitea:     {},
}

// ParseKind converts a stored identifier into a
// ProviderKind. Values outside the closed set are
// rejected: they signal a data-integrity problem, not a
// deployment gap.
func ParseKind(s string) (ProviderKind, error) {
	const errCtx = "parsing provider kind"

	k := ProviderKind(s)
	if !k.Known() {
		return "", fmt.Errorf(
			"%s: unknown provider %q", errCtx, s,
		)
	}

	return k, nil
}

// Known reports whether the kind belongs to the closed
// provider set.
func (k ProviderKind) Known() bool {
	_, ok := knownKinds[k]

	return ok
}

// String returns the stored identifier form of the kind.
func (k ProviderKind) String() string {
	return string(k)
}

// Package gitref computes clone, push, and web URLs for
// repositories across providers. All functions are pure:
// the per-provider host, credential literal, and pull
// request path differences live in one static table keyed
// by the provider kind.
package gitref

import (
	"fmt"
	"net/url"

	"github.com/byte4ever/scm_federation/scm"
)

// Config identifies a repository for reference building.
type Config struct {
	// Provider selects the per-provider constants.
	Provider scm.ProviderKind
	// Owner and Name identify the repository.
	Owner string
	Name  string
	// BaseURL overrides the default public host for
	// self-hosted deployments. Its host component is
	// authoritative when present.
	BaseURL string
}

// refSpec holds the per-provider reference constants.
type refSpec struct {
	// host is the default public host.
	host string
	// authUser is the fixed username literal paired with
	// an embedded token. It differs across providers and
	// must never be swapped.
	authUser string
	// prPath is the web path segment of the pull request
	// view.
	prPath string
}

// refTable is total over the implemented provider set.
var refTable = map[scm.ProviderKind]refSpec{
	scm.GitHub: {
		host:     "github.com",
		authUser: "x-access-token",
		prPath:   "pull",
	},
	scm.GitLab: {
		host:     "gitlab.com",
		authUser: "oauth2",
		prPath:   "-/merge_requests",
	},
	scm.Bitbucket: {
		host:     "bitbucket.org",
		authUser: "x-token-auth",
		prPath:   "pull-requests",
	},
}

// resolve returns the provider constants and the
// effective host for cfg.
func resolve(cfg Config) (refSpec, string, error) {
	const errCtx = "resolving git reference host"

	rs, ok := refTable[cfg.Provider]
	if !ok {
		return refSpec{}, "", fmt.Errorf(
			"%s: no reference constants for provider %q",
			errCtx, cfg.Provider,
		)
	}

	host := rs.host

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return refSpec{}, "", fmt.Errorf(
				"%s: parsing base url: %w",
				errCtx, err,
			)
		}

		if u.Host == "" {
			return refSpec{}, "", fmt.Errorf(
				"%s: base url %q has no host",
				errCtx, cfg.BaseURL,
			)
		}

		host = u.Host
	}

	return rs, host, nil
}

// CloneURL returns the HTTPS clone/push URL. When token
// is non-empty the provider's fixed username literal is
// embedded together with the token; when empty the URL
// carries no credential at all.
func CloneURL(cfg Config, token string) (string, error) {
	rs, host, err := resolve(cfg)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path: fmt.Sprintf(
			"/%s/%s.git", cfg.Owner, cfg.Name,
		),
	}

	if token != "" {
		u.User = url.UserPassword(rs.authUser, token)
	}

	return u.String(), nil
}

// RepoURL returns the human-facing repository page URL.
func RepoURL(cfg Config) (string, error) {
	_, host, err := resolve(cfg)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path: fmt.Sprintf(
			"/%s/%s", cfg.Owner, cfg.Name,
		),
	}

	return u.String(), nil
}

// PullRequestURL returns the human-facing page URL of the
// pull request with the given id.
func PullRequestURL(cfg Config, id string) (string, error) {
	rs, host, err := resolve(cfg)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path: fmt.Sprintf(
			"/%s/%s/%s/%s",
			cfg.Owner, cfg.Name, rs.prPath, id,
		),
	}

	return u.String(), nil
}

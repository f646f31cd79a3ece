// Package registry resolves a provider kind plus its
// configuration bundle entry into a live provider
// instance.
package registry

import (
	"fmt"

	"github.com/byte4ever/scm_federation/scm"
	"github.com/byte4ever/scm_federation/scm/bitbucket"
	"github.com/byte4ever/scm_federation/scm/github"
	"github.com/byte4ever/scm_federation/scm/gitlab"
)

// New resolves kind against bundle and returns a live
// provider.
//
// Two failure modes stay distinct on purpose: a kind
// inside the closed set without an implementation is a
// deployment gap an operator can act on
// (NotImplemented), while a kind outside the set signals
// a data-integrity problem such as a stored value
// predating a schema change (UnsupportedProvider).
func New(
	kind scm.ProviderKind,
	bundle scm.ConfigBundle,
) (scm.Provider, error) {
	const op = "resolve provider"

	cfg := bundle[kind]

	switch kind {
	case scm.GitHub:
		return github.NewProvider(github.Config{
			BaseURL:         cfg.BaseURL,
			PushToken:       cfg.PushToken,
			PushTokenSource: cfg.PushTokenSource,
		})

	case scm.GitLab:
		return gitlab.NewProvider(gitlab.Config{
			Host:            cfg.BaseURL,
			PushToken:       cfg.PushToken,
			PushTokenSource: cfg.PushTokenSource,
		})

	case scm.Bitbucket:
		return bitbucket.NewProvider(bitbucket.Config{
			BaseURL:         cfg.BaseURL,
			PushToken:       cfg.PushToken,
			PushTokenSource: cfg.PushTokenSource,
		})

	case scm.Gitea:
		return nil, &scm.Error{
			Code:     scm.NotImplemented,
			Provider: kind,
			Op:       op,
			Err: fmt.Errorf(
				"provider %q is configured but not implemented",
				kind,
			),
		}

	default:
		return nil, &scm.Error{
			Code:     scm.UnsupportedProvider,
			Provider: kind,
			Op:       op,
			Err: fmt.Errorf(
				"unsupported provider %q", kind,
			),
		}
	}
}

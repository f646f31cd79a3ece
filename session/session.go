package session

import (
	"context"
	"fmt"

	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/scm_federation/scm"
	"github.com/byte4ever/scm_federation/scm/gitref"
	"github.com/byte4ever/scm_federation/scm/registry"
)

// Session binds one provider kind for its whole life. The
// binding is set once at creation; no API exists to
// change it afterwards.
type Session struct {
	kind     scm.ProviderKind
	provider scm.Provider
	baseURL  string
}

// New resolves kind against bundle and returns a session
// bound to it.
func New(
	kind scm.ProviderKind,
	bundle scm.ConfigBundle,
) (*Session, error) {
	const errCtx = "creating session"

	provider, err := registry.New(kind, bundle)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return &Session{
		kind:     kind,
		provider: provider,
		baseURL:  bundle[kind].BaseURL,
	}, nil
}

// Kind returns the immutable provider binding.
func (s *Session) Kind() scm.ProviderKind {
	return s.kind
}

// Repository looks up a repository through the bound
// provider.
func (s *Session) Repository(
	ctx context.Context,
	auth scm.UserAuth,
	owner string,
	name string,
) (*scm.RepositoryInfo, error) {
	return s.provider.GetRepository(
		ctx, auth, owner, name,
	)
}

// CreatePullRequest expands the title and body templates
// and creates the pull request through the bound
// provider. Templates use single-brace tags; the
// variables owner, repo, source_branch and target_branch
// are available, and unknown tags are kept verbatim.
func (s *Session) CreatePullRequest(
	ctx context.Context,
	auth scm.UserAuth,
	cfg scm.PullRequestConfig,
) (*scm.PullRequestResult, error) {
	vars := map[string]interface{}{
		"owner":         cfg.Owner,
		"repo":          cfg.Name,
		"source_branch": cfg.SourceBranch,
		"target_branch": cfg.TargetBranch,
	}

	cfg.Title = expand(cfg.Title, vars)
	cfg.Body = expand(cfg.Body, vars)

	return s.provider.CreatePullRequest(
		ctx, auth, cfg,
	)
}

// PushTarget is the work order handed to the remote git
// client: a clone URL with the push credential embedded,
// plus the credential itself.
type PushTarget struct {
	// CloneURL embeds the push credential. Treat it as a
	// secret: never log it unredacted.
	CloneURL string
	// Auth is the minted push credential.
	Auth *scm.PushAuth
}

// PushTarget mints a push credential and computes the
// tokenized clone URL for owner/name. Credential issuance
// may be rate limited by the provider, so callers should
// reuse one target for a session's git operations rather
// than mint per git call.
func (s *Session) PushTarget(
	ctx context.Context,
	owner string,
	name string,
) (*PushTarget, error) {
	const errCtx = "building push target"

	auth, err := s.provider.GeneratePushAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	cloneURL, err := gitref.CloneURL(
		gitref.Config{
			Provider: s.kind,
			Owner:    owner,
			Name:     name,
			BaseURL:  s.baseURL,
		},
		auth.Token,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return &PushTarget{
		CloneURL: cloneURL,
		Auth:     auth,
	}, nil
}

// expand substitutes single-brace template tags, keeping
// unknown tags untouched so braces in pull request text
// survive.
func expand(
	tpl string,
	vars map[string]interface{},
) string {
	return fasttemplate.ExecuteStringStd(
		tpl, "{", "}", vars,
	)
}

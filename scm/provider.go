package scm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
)

// UserAgent identifies this client on outbound provider
// API requests.
const UserAgent = "scm-federation/1.0"

// UserAuth is a short-lived bearer credential representing
// an authenticated end user. It is supplied per call and
// never persisted by this layer.
type UserAuth struct {
	// Token is the bearer token.
	Token string
}

// LogValue keeps user tokens out of log output.
func (UserAuth) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}

// AuthType describes how a push credential authenticates.
type AuthType string

const (
	// AuthOAuth2 is a minted oauth2 bearer token.
	AuthOAuth2 AuthType = "oauth2-bearer"
	// AuthPersonalAccessToken is a static personal
	// access token.
	AuthPersonalAccessToken AuthType = "personal-access-token"
	// AuthAppPassword is a static app password or
	// repository access token.
	AuthAppPassword AuthType = "app-password"
)

// PushAuth is a capability credential used solely to
// authenticate outbound git clone/push. It carries no
// user association and must never appear in logs or in
// any external-facing response.
type PushAuth struct {
	// AuthType describes the credential scheme.
	AuthType AuthType
	// Token is the credential itself. Opaque.
	Token string
	// ExpiresAt is zero for credentials without a known
	// expiry (static tokens).
	ExpiresAt time.Time
}

// LogValue keeps push credentials out of log output.
func (PushAuth) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}

// RepositoryInfo is the canonical repository identity all
// providers produce.
type RepositoryInfo struct {
	// Owner is the user or organisation owning the
	// repository.
	Owner string
	// Name is the repository name without owner.
	Name string
	// FullName is "owner/name".
	FullName string
	// DefaultBranch is the primary branch name.
	DefaultBranch string
	// Private reports whether the repository is
	// non-public.
	Private bool
	// ProviderRepoID is the provider-native repository
	// id: numeric for some providers, a UUID for others.
	// It is stored and echoed back, never parsed.
	ProviderRepoID string
}

// PRState is the canonical four-value pull request
// lifecycle shared across all providers. Every native
// vocabulary maps into exactly these values.
type PRState string

const (
	StateOpen   PRState = "open"
	StateDraft  PRState = "draft"
	StateMerged PRState = "merged"
	StateClosed PRState = "closed"
)

// PullRequestConfig describes a pull request to create.
type PullRequestConfig struct {
	// Owner and Name identify the repository.
	Owner string
	Name  string

	// Title and Body are the pull request text.
	Title string
	Body  string

	// SourceBranch is merged into TargetBranch.
	SourceBranch string
	TargetBranch string

	// Draft is best effort: providers without native
	// draft support create a regular pull request.
	Draft bool
	// Labels are best effort: providers without label
	// support drop them.
	Labels []string
	// Reviewers are requested by username, best effort.
	Reviewers []string
}

// PullRequestResult is the canonical creation outcome.
type PullRequestResult struct {
	// ID is the provider-native pull request number or
	// iid, as a string.
	ID string
	// WebURL is the human-facing pull request page.
	WebURL string
	// APIURL is the REST resource of the pull request.
	APIURL string
	// State is always one of the four canonical values,
	// never a raw provider string.
	State PRState

	SourceBranch string
	TargetBranch string
}

// Provider is the uniform contract every source-control
// back end implements.
//
// Pattern: Strategy -- swap the git platform without
// changing session orchestration logic.
//
// All operations are independent, stateless network calls
// with no shared mutable state between concurrent
// invocations. The context cancels the in-flight request;
// no compensating action is attempted for whatever the
// remote API already committed.
type Provider interface {
	// GetRepository looks up a repository visible to the
	// user credential.
	GetRepository(
		ctx context.Context,
		auth UserAuth,
		owner string,
		name string,
	) (*RepositoryInfo, error)

	// CreatePullRequest creates a pull request. Either a
	// pull request is created and returned, or none is;
	// unsupported capabilities (draft, labels, reviewers)
	// degrade silently instead of failing.
	CreatePullRequest(
		ctx context.Context,
		auth UserAuth,
		cfg PullRequestConfig,
	) (*PullRequestResult, error)

	// GeneratePushAuth mints a push credential from
	// provider-level configuration. No per-call user
	// credential is involved. Fails with
	// ConfigurationError when no push credential is
	// configured.
	GeneratePushAuth(
		ctx context.Context,
	) (*PushAuth, error)
}

// MintPushAuth builds a push credential from
// provider-level configuration. A rotating token source
// wins over a static token; staticType is the auth type
// the provider assigns to its static credential. With
// unchanged configuration and a static token the result
// is identical across calls.
func MintPushAuth(
	kind ProviderKind,
	source oauth2.TokenSource,
	staticToken string,
	staticType AuthType,
) (*PushAuth, error) {
	const op = "generate push auth"

	if source != nil {
		tok, err := source.Token()
		if err != nil {
			return nil, &Error{
				Code:     Unavailable,
				Provider: kind,
				Op:       op,
				Err:      err,
			}
		}

		return &PushAuth{
			AuthType:  AuthOAuth2,
			Token:     tok.AccessToken,
			ExpiresAt: tok.Expiry,
		}, nil
	}

	if staticToken != "" {
		return &PushAuth{
			AuthType: staticType,
			Token:    staticToken,
		}, nil
	}

	return nil, &Error{
		Code:     ConfigurationError,
		Provider: kind,
		Op:       op,
		Err: errors.New(
			"no push credential configured",
		),
	}
}

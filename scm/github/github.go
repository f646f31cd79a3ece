package github

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/byte4ever/scm_federation/scm"
)

// Config holds the settings needed to create a GitHub
// provider.
type Config struct {
	// BaseURL is an optional GitHub Enterprise base URL
	// (e.g. "https://git.corp.example.com"). Leave empty
	// for github.com.
	BaseURL string

	// PushToken is an optional static push credential.
	PushToken string

	// PushTokenSource optionally mints rotating push
	// credentials; it takes precedence over PushToken.
	PushTokenSource oauth2.TokenSource
}

// Provider implements scm.Provider against the GitHub
// REST API.
//
// Pattern: Strategy -- implements scm.Provider.
type Provider struct {
	client *gh.Client
	cfg    Config
}

// NewProvider validates cfg and returns a Provider. The
// client carries no credential: each call binds the
// caller-supplied user token to its own request.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	client := gh.NewClient(nil)
	client.UserAgent = scm.UserAgent

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}

		var err error

		client, err = client.WithEnterpriseURLs(
			base, base,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, err,
			)
		}

		client.UserAgent = scm.UserAgent
	}

	return &Provider{
		client: client,
		cfg:    cfg,
	}, nil
}

// GetRepository looks up owner/name with the user
// credential.
func (p *Provider) GetRepository(
	ctx context.Context,
	auth scm.UserAuth,
	owner string,
	name string,
) (*scm.RepositoryInfo, error) {
	const op = "get repository"

	cli := p.client.WithAuthToken(auth.Token)

	repo, resp, err := cli.Repositories.Get(
		ctx, owner, name,
	)
	if err != nil {
		return nil, wrapErr(op, resp, err)
	}

	return &scm.RepositoryInfo{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
		ProviderRepoID: strconv.FormatInt(
			repo.GetID(), 10,
		),
	}, nil
}

// CreatePullRequest creates a pull request from the
// source branch into the target branch. Draft is applied
// natively; labels and reviewers are applied after
// creation and never fail the created pull request.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	auth scm.UserAuth,
	cfg scm.PullRequestConfig,
) (*scm.PullRequestResult, error) {
	const op = "create pull request"

	cli := p.client.WithAuthToken(auth.Token)

	pr := &gh.NewPullRequest{
		Title: &cfg.Title,
		Head:  &cfg.SourceBranch,
		Base:  &cfg.TargetBranch,
		Body:  &cfg.Body,
		Draft: &cfg.Draft,
	}

	created, resp, err := cli.PullRequests.Create(
		ctx, cfg.Owner, cfg.Name, pr,
	)
	if err != nil {
		return nil, wrapErr(op, resp, err)
	}

	if len(cfg.Labels) > 0 {
		_, _, err := cli.Issues.AddLabelsToIssue(
			ctx, cfg.Owner, cfg.Name,
			created.GetNumber(), cfg.Labels,
		)
		if err != nil {
			slog.Warn(
				"cannot add labels",
				"pr", created.GetNumber(),
				"error", err,
			)
		}
	}

	if len(cfg.Reviewers) > 0 {
		_, _, err := cli.PullRequests.RequestReviewers(
			ctx, cfg.Owner, cfg.Name,
			created.GetNumber(),
			gh.ReviewersRequest{
				Reviewers: cfg.Reviewers,
			},
		)
		if err != nil {
			slog.Warn(
				"cannot request reviewers",
				"pr", created.GetNumber(),
				"error", err,
			)
		}
	}

	slog.Info(
		"created pull request",
		"url", created.GetHTMLURL(),
	)

	return &scm.PullRequestResult{
		ID:     strconv.Itoa(created.GetNumber()),
		WebURL: created.GetHTMLURL(),
		APIURL: created.GetURL(),
		State: mapState(
			created.GetState(),
			created.GetDraft(),
			created.GetMerged(),
		),
		SourceBranch: cfg.SourceBranch,
		TargetBranch: cfg.TargetBranch,
	}, nil
}

// GeneratePushAuth mints a push credential from
// provider-level configuration. A static token is a
// personal access token on GitHub.
func (p *Provider) GeneratePushAuth(
	_ context.Context,
) (*scm.PushAuth, error) {
	return scm.MintPushAuth(
		scm.GitHub,
		p.cfg.PushTokenSource,
		p.cfg.PushToken,
		scm.AuthPersonalAccessToken,
	)
}

// stateTable maps the GitHub state vocabulary to
// canonical states.
var stateTable = map[string]scm.PRState{
	"open":   scm.StateOpen,
	"closed": scm.StateClosed,
}

// mapState is total: the merged and draft flags take
// precedence over the raw state string, and values not in
// the table fall back to open so upstream vocabulary
// additions never fail the mapping.
func mapState(
	native string,
	draft bool,
	merged bool,
) scm.PRState {
	if merged {
		return scm.StateMerged
	}

	if draft {
		return scm.StateDraft
	}

	if st, ok := stateTable[native]; ok {
		return st
	}

	return scm.StateOpen
}

// wrapErr turns a go-github failure into the taxonomy
// error for the operation.
func wrapErr(
	op string,
	resp *gh.Response,
	err error,
) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	return &scm.Error{
		Code:     scm.CodeFromStatus(status),
		Provider: scm.GitHub,
		Op:       op,
		Err:      err,
	}
}

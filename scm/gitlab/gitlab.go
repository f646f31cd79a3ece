package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/oauth2"

	"github.com/byte4ever/scm_federation/scm"
)

// Config holds the settings needed to create a GitLab
// provider.
type Config struct {
	// Host is the base URL of the GitLab instance. Leave
	// empty for https://gitlab.com.
	Host string

	// PushToken is an optional static push credential.
	PushToken string

	// PushTokenSource optionally mints rotating push
	// credentials; it takes precedence over PushToken.
	PushTokenSource oauth2.TokenSource
}

// Provider implements scm.Provider against the GitLab
// REST API.
//
// Pattern: Strategy -- implements scm.Provider.
type Provider struct {
	host string
	cfg  Config
}

// NewProvider returns a Provider for the configured host.
func NewProvider(cfg Config) (*Provider, error) {
	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	return &Provider{
		host: host,
		cfg:  cfg,
	}, nil
}

// client binds the user credential to a per-call API
// client. The credential is an oauth bearer token, so it
// rides the Authorization header rather than
// Private-Token. Internal retries are disabled: retry
// policy belongs to the caller.
func (p *Provider) client(
	auth scm.UserAuth,
) (*gl.Client, error) {
	cli, err := gl.NewOAuthClient(
		auth.Token,
		gl.WithBaseURL(p.host),
		gl.WithCustomRetryMax(0),
	)
	if err != nil {
		return nil, err
	}

	cli.UserAgent = scm.UserAgent

	return cli, nil
}

// GetRepository looks up the project owner/name with the
// user credential.
func (p *Provider) GetRepository(
	ctx context.Context,
	auth scm.UserAuth,
	owner string,
	name string,
) (*scm.RepositoryInfo, error) {
	const op = "get repository"

	cli, err := p.client(auth)
	if err != nil {
		return nil, configErr(op, err)
	}

	proj, resp, err := cli.Projects.GetProject(
		owner+"/"+name, nil, gl.WithContext(ctx),
	)
	if err != nil {
		return nil, wrapErr(op, resp, err)
	}

	ownerPath := owner
	if proj.Namespace != nil {
		ownerPath = proj.Namespace.Path
	}

	return &scm.RepositoryInfo{
		Owner:          ownerPath,
		Name:           proj.Path,
		FullName:       proj.PathWithNamespace,
		DefaultBranch:  proj.DefaultBranch,
		Private:        proj.Visibility != gl.PublicVisibility,
		ProviderRepoID: strconv.FormatInt(
			proj.ID, 10,
		),
	}, nil
}

// CreatePullRequest creates a merge request from the
// source branch into the target branch. GitLab models
// draft as a title prefix; reviewers are dropped because
// usernames cannot be resolved to ids without an extra
// user lookup.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	auth scm.UserAuth,
	cfg scm.PullRequestConfig,
) (*scm.PullRequestResult, error) {
	const op = "create merge request"

	cli, err := p.client(auth)
	if err != nil {
		return nil, configErr(op, err)
	}

	title := cfg.Title
	if cfg.Draft {
		title = "Draft: " + title
	}

	opts := gl.CreateMergeRequestOptions{
		Title:        &title,
		Description:  &cfg.Body,
		SourceBranch: &cfg.SourceBranch,
		TargetBranch: &cfg.TargetBranch,
	}

	if len(cfg.Labels) > 0 {
		labels := gl.LabelOptions(cfg.Labels)
		opts.Labels = &labels
	}

	if len(cfg.Reviewers) > 0 {
		slog.Debug(
			"dropping reviewers",
			"count", len(cfg.Reviewers),
		)
	}

	mr, resp, err := cli.MergeRequests.CreateMergeRequest(
		cfg.Owner+"/"+cfg.Name,
		&opts,
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, wrapErr(op, resp, err)
	}

	slog.Info(
		"created merge request",
		"url", mr.WebURL,
	)

	return &scm.PullRequestResult{
		ID:     strconv.FormatInt(mr.IID, 10),
		WebURL: mr.WebURL,
		APIURL: fmt.Sprintf(
			"%s/api/v4/projects/%d/merge_requests/%d",
			p.host, mr.ProjectID, mr.IID,
		),
		State:        mapState(mr.State, mr.Draft),
		SourceBranch: cfg.SourceBranch,
		TargetBranch: cfg.TargetBranch,
	}, nil
}

// GeneratePushAuth mints a push credential from
// provider-level configuration. A static token is a
// personal access token on GitLab.
func (p *Provider) GeneratePushAuth(
	_ context.Context,
) (*scm.PushAuth, error) {
	return scm.MintPushAuth(
		scm.GitLab,
		p.cfg.PushTokenSource,
		p.cfg.PushToken,
		scm.AuthPersonalAccessToken,
	)
}

// stateTable maps the GitLab state vocabulary to
// canonical states.
var stateTable = map[string]scm.PRState{
	"opened": scm.StateOpen,
	"merged": scm.StateMerged,
	"closed": scm.StateClosed,
	"locked": scm.StateClosed,
}

// mapState is total: the draft flag takes precedence over
// the native state, and values not in the table fall back
// to open so upstream vocabulary additions never fail the
// mapping.
func mapState(native string, draft bool) scm.PRState {
	if draft {
		return scm.StateDraft
	}

	if st, ok := stateTable[native]; ok {
		return st
	}

	return scm.StateOpen
}

// wrapErr turns a client failure into the taxonomy error
// for the operation.
func wrapErr(
	op string,
	resp *gl.Response,
	err error,
) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	return &scm.Error{
		Code:     scm.CodeFromStatus(status),
		Provider: scm.GitLab,
		Op:       op,
		Err:      err,
	}
}

// configErr reports a client that could not even be
// constructed (malformed host).
func configErr(op string, err error) error {
	return &scm.Error{
		Code:     scm.ConfigurationError,
		Provider: scm.GitLab,
		Op:       op,
		Err:      err,
	}
}

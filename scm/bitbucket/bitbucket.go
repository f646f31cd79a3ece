package bitbucket

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/byte4ever/scm_federation/scm"
)

// Config holds the settings needed to create a Bitbucket
// Cloud provider.
type Config struct {
	// BaseURL is the REST API base URL. Leave empty for
	// https://api.bitbucket.org/2.0.
	BaseURL string

	// PushToken is an optional static push credential
	// (repository or workspace access token).
	PushToken string

	// PushTokenSource optionally mints rotating push
	// credentials; it takes precedence over PushToken.
	PushTokenSource oauth2.TokenSource
}

// Provider implements scm.Provider against the Bitbucket
// Cloud 2.0 REST API.
//
// Pattern: Strategy -- implements scm.Provider.
type Provider struct {
	base string
	cfg  Config
}

// NewProvider returns a Provider for the configured API
// base.
func NewProvider(cfg Config) (*Provider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.bitbucket.org/2.0"
	}

	return &Provider{
		base: strings.TrimSuffix(base, "/"),
		cfg:  cfg,
	}, nil
}

type repoResponse struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	MainBranch struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
	Owner struct {
		Username string `json:"username"`
	} `json:"owner"`
}

type branch struct {
	Name string `json:"name"`
}

type endpoint struct {
	Branch branch `json:"branch"`
}

type prRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Source      endpoint `json:"source"`
	Destination endpoint `json:"destination"`
}

type link struct {
	Href string `json:"href"`
}

type prResponse struct {
	ID    int    `json:"id"`
	State string `json:"state"`
	Links struct {
		HTML link `json:"html"`
		Self link `json:"self"`
	} `json:"links"`
}

// GetRepository looks up the repository owner/name with
// the user credential.
func (p *Provider) GetRepository(
	ctx context.Context,
	auth scm.UserAuth,
	owner string,
	name string,
) (*scm.RepositoryInfo, error) {
	const op = "get repository"

	var repo repoResponse

	err := p.do(
		ctx, auth, op,
		http.MethodGet,
		fmt.Sprintf("/repositories/%s/%s", owner, name),
		nil, &repo,
	)
	if err != nil {
		return nil, err
	}

	ownerName := repo.Owner.Username
	if ownerName == "" {
		ownerName = owner
	}

	slug := repo.Slug
	if slug == "" {
		slug = name
	}

	return &scm.RepositoryInfo{
		Owner:          ownerName,
		Name:           slug,
		FullName:       repo.FullName,
		DefaultBranch:  repo.MainBranch.Name,
		Private:        repo.IsPrivate,
		ProviderRepoID: repo.UUID,
	}, nil
}

// CreatePullRequest creates a pull request from the
// source branch into the destination branch. Bitbucket
// has no draft or label support; both degrade silently.
// Reviewers are dropped because usernames cannot be
// resolved to account ids without an extra lookup.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	auth scm.UserAuth,
	cfg scm.PullRequestConfig,
) (*scm.PullRequestResult, error) {
	const op = "create pull request"

	if cfg.Draft {
		slog.Debug(
			"dropping draft flag: no native support",
		)
	}

	if len(cfg.Labels) > 0 {
		slog.Debug(
			"dropping labels: no native support",
			"count", len(cfg.Labels),
		)
	}

	if len(cfg.Reviewers) > 0 {
		slog.Debug(
			"dropping reviewers",
			"count", len(cfg.Reviewers),
		)
	}

	payload := prRequest{
		Title:       cfg.Title,
		Description: cfg.Body,
		Source: endpoint{
			Branch: branch{Name: cfg.SourceBranch},
		},
		Destination: endpoint{
			Branch: branch{Name: cfg.TargetBranch},
		},
	}

	var pr prResponse

	err := p.do(
		ctx, auth, op,
		http.MethodPost,
		fmt.Sprintf(
			"/repositories/%s/%s/pullrequests",
			cfg.Owner, cfg.Name,
		),
		&payload, &pr,
	)
	if err != nil {
		return nil, err
	}

	slog.Info(
		"created pull request",
		"url", pr.Links.HTML.Href,
	)

	return &scm.PullRequestResult{
		ID:           strconv.Itoa(pr.ID),
		WebURL:       pr.Links.HTML.Href,
		APIURL:       pr.Links.Self.Href,
		State:        mapState(pr.State),
		SourceBranch: cfg.SourceBranch,
		TargetBranch: cfg.TargetBranch,
	}, nil
}

// GeneratePushAuth mints a push credential from
// provider-level configuration. A static token is an app
// password equivalent on Bitbucket.
func (p *Provider) GeneratePushAuth(
	_ context.Context,
) (*scm.PushAuth, error) {
	return scm.MintPushAuth(
		scm.Bitbucket,
		p.cfg.PushTokenSource,
		p.cfg.PushToken,
		scm.AuthAppPassword,
	)
}

// do sends one API request and decodes the JSON response
// into out. Every failure comes back as the taxonomy
// error for the operation.
func (p *Provider) do(
	ctx context.Context,
	auth scm.UserAuth,
	op string,
	method string,
	path string,
	payload any,
	out any,
) error {
	var body *bytes.Buffer

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &scm.Error{
				Code:     scm.Rejected,
				Provider: scm.Bitbucket,
				Op:       op,
				Err: fmt.Errorf(
					"marshal request: %w", err,
				),
			}
		}

		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(
		ctx, method, p.base+path, body,
	)
	if err != nil {
		return &scm.Error{
			Code:     scm.Rejected,
			Provider: scm.Bitbucket,
			Op:       op,
			Err: fmt.Errorf(
				"build request: %w", err,
			),
		}
	}

	req.Header.Set(
		"Authorization", "Bearer "+auth.Token,
	)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", scm.UserAgent)

	if payload != nil {
		req.Header.Set(
			"Content-Type",
			"application/json; charset=utf-8",
		)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return &scm.Error{
			Code:     scm.Unavailable,
			Provider: scm.Bitbucket,
			Op:       op,
			Err:      err,
		}
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusCreated {
		return &scm.Error{
			Code: scm.CodeFromStatus(
				resp.StatusCode,
			),
			Provider: scm.Bitbucket,
			Op:       op,
			Err: fmt.Errorf(
				"unexpected status %d",
				resp.StatusCode,
			),
		}
	}

	if err := json.NewDecoder(resp.Body).
		Decode(out); err != nil {
		return &scm.Error{
			Code:     scm.Rejected,
			Provider: scm.Bitbucket,
			Op:       op,
			Err: fmt.Errorf(
				"decode response: %w", err,
			),
		}
	}

	return nil
}

// stateTable maps the Bitbucket state vocabulary to
// canonical states. DECLINED and SUPERSEDED both collapse
// into closed.
var stateTable = map[string]scm.PRState{
	"OPEN":       scm.StateOpen,
	"MERGED":     scm.StateMerged,
	"DECLINED":   scm.StateClosed,
	"SUPERSEDED": scm.StateClosed,
}

// mapState is total: values not in the table fall back to
// open so upstream vocabulary additions never fail the
// mapping.
func mapState(native string) scm.PRState {
	if st, ok := stateTable[native]; ok {
		return st
	}

	return scm.StateOpen
}

package bitbucket_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/scm_federation/scm"
	bbprov "github.com/byte4ever/scm_federation/scm/bitbucket"
)

func TestProvider_GetRepository(t *testing.T) {
	t.Parallel()

	var (
		gotAuth   string
		gotAccept string
		gotAgent  string
	)

	mux := http.NewServeMux()
	mux.HandleFunc(
		"/repositories/org/repo",
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			gotAgent = r.Header.Get("User-Agent")

			w.Header().Set(
				"Content-Type", "application/json",
			)
			_, _ = io.WriteString(w, `{
				"uuid": "{b4a1}",
				"name": "Repo",
				"slug": "repo",
				"full_name": "org/repo",
				"is_private": true,
				"mainbranch": {"name": "main"},
				"owner": {"username": "org"}
			}`)
		},
	)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	pv, err := bbprov.NewProvider(bbprov.Config{
		BaseURL: ts.URL,
	})
	require.NoError(t, err)

	info, err := pv.GetRepository(
		context.Background(),
		scm.UserAuth{Token: "tok"},
		"org", "repo",
	)

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, scm.UserAgent, gotAgent)
	assert.Equal(t, "org", info.Owner)
	assert.Equal(t, "repo", info.Name)
	assert.Equal(t, "org/repo", info.FullName)
	assert.Equal(t, "main", info.DefaultBranch)
	assert.True(t, info.Private)
	assert.Equal(t, "{b4a1}", info.ProviderRepoID)
}

func TestProvider_GetRepository_unauthorized(
	t *testing.T,
) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	))
	defer ts.Close()

	pv, err := bbprov.NewProvider(bbprov.Config{
		BaseURL: ts.URL,
	})
	require.NoError(t, err)

	info, err := pv.GetRepository(
		context.Background(),
		scm.UserAuth{Token: "bad"},
		"org", "repo",
	)

	assert.Nil(t, info)
	assert.True(t, scm.IsCode(err, scm.Unauthorized))
	assert.Equal(
		t, scm.Permanent, scm.DispositionOf(err),
	)
}

func TestProvider_GetRepository_malformed_response(
	t *testing.T,
) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		},
	))
	defer ts.Close()

	pv, err := bbprov.NewProvider(bbprov.Config{
		BaseURL: ts.URL,
	})
	require.NoError(t, err)

	info, err := pv.GetRepository(
		context.Background(),
		scm.UserAuth{Token: "tok"},
		"org", "repo",
	)

	assert.Nil(t, info)
	assert.True(t, scm.IsCode(err, scm.Rejected))
	assert.Equal(
		t, scm.Permanent, scm.DispositionOf(err),
	)
}

func TestProvider_CreatePullRequest(t *testing.T) {
	t.Parallel()

	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc(
		"/repositories/org/repo/pullrequests",
		func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)

			w.Header().Set(
				"Content-Type", "application/json",
			)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{
				"id": 3,
				"state": "OPEN",
				"links": {
					"html": {"href": "https://bitbucket.org/org/repo/pull-requests/3"},
					"self": {"href": "https://api.bitbucket.org/2.0/repositories/org/repo/pullrequests/3"}
				}
			}`)
		},
	)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	pv, err := bbprov.NewProvider(bbprov.Config{
		BaseURL: ts.URL,
	})
	require.NoError(t, err)

	res, err := pv.CreatePullRequest(
		context.Background(),
		scm.UserAuth{Token: "tok"},
		scm.PullRequestConfig{
			Owner:        "org",
			Name:         "repo",
			Title:        "my title",
			Body:         "my body",
			SourceBranch: "feature/x",
			TargetBranch: "main",
			Draft:        true,
			Labels:       []string{"ship"},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "3", res.ID)
	assert.Equal(t, scm.StateOpen, res.State)
	assert.Equal(
		t,
		"https://bitbucket.org/org/repo/pull-requests/3",
		res.WebURL,
	)
	assert.Equal(t, "feature/x", res.SourceBranch)
	assert.Equal(t, "main", res.TargetBranch)
	assert.Contains(
		t, string(gotBody), `"title":"my title"`,
	)
	assert.Contains(t, string(gotBody), "feature/x")
}

// A declined pull request comes back as closed.
func TestProvider_CreatePullRequest_declined(
	t *testing.T,
) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(
				"Content-Type", "application/json",
			)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{
				"id": 4,
				"state": "DECLINED",
				"links": {}
			}`)
		},
	))
	defer ts.Close()

	pv, err := bbprov.NewProvider(bbprov.Config{
		BaseURL: ts.URL,
	})
	require.NoError(t, err)

	res, err := pv.CreatePullRequest(
		context.Background(),
		scm.UserAuth{Token: "tok"},
		scm.PullRequestConfig{
			Owner:        "org",
			Name:         "repo",
			Title:        "t",
			SourceBranch: "a",
			TargetBranch: "b",
		},
	)

	require.NoError(t, err)
	assert.Equal(t, scm.StateClosed, res.State)
}

func TestProvider_GeneratePushAuth_static(t *testing.T) {
	t.Parallel()

	pv, err := bbprov.NewProvider(bbprov.Config{
		PushToken: "abc123",
	})
	require.NoError(t, err)

	auth, err := pv.GeneratePushAuth(
		context.Background(),
	)

	require.NoError(t, err)
	assert.Equal(
		t, scm.AuthAppPassword, auth.AuthType,
	)
	assert.Equal(t, "abc123", auth.Token)
}

func TestMapState(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		native string
		want   scm.PRState
	}{
		{
			name:   "open",
			native: "OPEN",
			want:   scm.StateOpen,
		},
		{
			name:   "merged",
			native: "MERGED",
			want:   scm.StateMerged,
		},
		{
			name:   "declined maps to closed",
			native: "DECLINED",
			want:   scm.StateClosed,
		},
		{
			name:   "superseded maps to closed",
			native: "SUPERSEDED",
			want:   scm.StateClosed,
		},
		{
			name:   "unknown falls back to open",
			native: "WEIRD",
			want:   scm.StateOpen,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t,
				tc.want,
				bbprov.MapState(tc.native),
			)
		})
	}
}

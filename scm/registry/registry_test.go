package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/scm_federation/scm"
	"github.com/byte4ever/scm_federation/scm/registry"
)

func TestNew_implemented_kinds(t *testing.T) {
	t.Parallel()

	bundle := scm.ConfigBundle{
		scm.GitHub: {PushToken: "tok"},
	}

	for _, kind := range []scm.ProviderKind{
		scm.GitHub, scm.GitLab, scm.Bitbucket,
	} {
		pv, err := registry.New(kind, bundle)

		require.NoError(t, err)
		assert.NotNil(t, pv)
	}
}

func TestNew_not_implemented(t *testing.T) {
	t.Parallel()

	pv, err := registry.New(scm.Gitea, nil)

	assert.Nil(t, pv)
	assert.True(
		t, scm.IsCode(err, scm.NotImplemented),
	)
	assert.ErrorContains(
		t, err, "configured but not implemented",
	)
}

func TestNew_unsupported(t *testing.T) {
	t.Parallel()

	pv, err := registry.New(
		scm.ProviderKind("svn"), nil,
	)

	assert.Nil(t, pv)
	assert.True(
		t, scm.IsCode(err, scm.UnsupportedProvider),
	)
	assert.ErrorContains(t, err, "unsupported provider")
}

// The two refusal messages must stay distinct so an
// operator can tell a deployment gap from bad stored data.
func TestNew_refusals_are_distinguishable(t *testing.T) {
	t.Parallel()

	_, errGap := registry.New(scm.Gitea, nil)
	_, errBad := registry.New(
		scm.ProviderKind("svn"), nil,
	)

	require.Error(t, errGap)
	require.Error(t, errBad)
	assert.NotEqual(
		t, errGap.Error(), errBad.Error(),
	)
	assert.False(
		t, scm.IsCode(errGap, scm.UnsupportedProvider),
	)
	assert.False(
		t, scm.IsCode(errBad, scm.NotImplemented),
	)
}

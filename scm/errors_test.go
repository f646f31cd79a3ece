package scm_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byte4ever/scm_federation/scm"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		err    error
		want   scm.Disposition
	}{
		{
			name: "transport error",
			err:  errors.New("connection refused"),
			want: scm.Transient,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			want:   scm.Transient,
		},
		{
			name:   "bad gateway",
			status: http.StatusBadGateway,
			want:   scm.Transient,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			want:   scm.Transient,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			want:   scm.Permanent,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			want:   scm.Permanent,
		},
		{
			name:   "unprocessable",
			status: http.StatusUnprocessableEntity,
			want:   scm.Permanent,
		},
		{
			name: "unclassifiable defaults to transient",
			want: scm.Transient,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t, tc.want,
				scm.Classify(tc.status, tc.err),
			)
		})
	}
}

func TestCode_Disposition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code scm.Code
		want scm.Disposition
	}{
		{scm.NotFound, scm.Permanent},
		{scm.Unauthorized, scm.Permanent},
		{scm.RateLimited, scm.Transient},
		{scm.Unavailable, scm.Transient},
		{scm.Rejected, scm.Permanent},
		{scm.ConfigurationError, scm.Permanent},
		{scm.NotImplemented, scm.Permanent},
		{scm.UnsupportedProvider, scm.Permanent},
	}

	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t, tc.want, tc.code.Disposition(),
			)
		})
	}
}

func TestCode_Disposition_unknown_defaults_transient(
	t *testing.T,
) {
	t.Parallel()

	assert.Equal(
		t,
		scm.Transient,
		scm.Code(99).Disposition(),
	)
}

func TestCodeFromStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   scm.Code
	}{
		{http.StatusNotFound, scm.NotFound},
		{http.StatusUnauthorized, scm.Unauthorized},
		{http.StatusForbidden, scm.Unauthorized},
		{http.StatusTooManyRequests, scm.RateLimited},
		{http.StatusInternalServerError, scm.Unavailable},
		{http.StatusServiceUnavailable, scm.Unavailable},
		{0, scm.Unavailable},
		{http.StatusUnprocessableEntity, scm.Rejected},
		{http.StatusBadRequest, scm.Rejected},
	}

	for _, tc := range cases {
		t.Run(
			fmt.Sprintf("status_%d", tc.status),
			func(t *testing.T) {
				t.Parallel()

				assert.Equal(
					t, tc.want,
					scm.CodeFromStatus(tc.status),
				)
			},
		)
	}
}

// Every status must classify identically whether it goes
// through the pure classifier or through the taxonomy
// code a provider raises.
func TestCodeFromStatus_agrees_with_Classify(
	t *testing.T,
) {
	t.Parallel()

	statuses := []int{
		400, 401, 403, 404, 409, 422,
		429, 500, 502, 503,
	}

	for _, status := range statuses {
		assert.Equal(
			t,
			scm.Classify(status, nil),
			scm.CodeFromStatus(status).Disposition(),
			"status %d", status,
		)
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	err := &scm.Error{
		Code:     scm.NotFound,
		Provider: scm.GitHub,
		Op:       "get repository",
		Err:      errors.New("boom"),
	}

	assert.Equal(
		t,
		"github: get repository: not found: boom",
		err.Error(),
	)
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	err := &scm.Error{
		Code:     scm.Unavailable,
		Provider: scm.GitLab,
		Op:       "op",
		Err:      cause,
	}

	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf(
		"wrapped: %w",
		&scm.Error{
			Code:     scm.RateLimited,
			Provider: scm.Bitbucket,
			Op:       "op",
		},
	)

	assert.True(t, scm.IsCode(err, scm.RateLimited))
	assert.False(t, scm.IsCode(err, scm.NotFound))
	assert.False(
		t,
		scm.IsCode(
			errors.New("plain"), scm.RateLimited,
		),
	)
}

func TestDispositionOf(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		scm.Permanent,
		scm.DispositionOf(&scm.Error{
			Code: scm.Unauthorized,
		}),
	)

	// Errors without a taxonomy code default to
	// transient.
	assert.Equal(
		t,
		scm.Transient,
		scm.DispositionOf(errors.New("plain")),
	)
}

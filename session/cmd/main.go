// Command scm_session performs source-control operations
// for one session: it resolves a provider from a YAML
// configuration bundle, verifies repository access,
// optionally creates a pull request, and optionally
// prints the push target handed to the remote git client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/byte4ever/scm_federation/sandbox"
	"github.com/byte4ever/scm_federation/scm"
	"github.com/byte4ever/scm_federation/session"
)

// sliceFlag implements flag.Value for multi-value string
// flags (repeated --flag=val usage).
type sliceFlag []string

// String returns the flag value as a comma-separated
// string representation.
func (s *sliceFlag) String() string {
	if s == nil {
		return ""
	}

	return strings.Join(*s, ",")
}

// Set appends a value to the slice.
func (s *sliceFlag) Set(val string) error {
	*s = append(*s, val)

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running scm_session"

	// Provider flags.
	providerName := flag.String(
		"provider", "",
		"Provider kind (github, gitlab, bitbucket)",
	)
	configPath := flag.String(
		"config", "",
		"Path to the YAML provider config bundle",
	)

	// Repository flags.
	owner := flag.String(
		"owner", "",
		"Repository owner or organisation",
	)
	repo := flag.String(
		"repo", "",
		"Repository name (without owner)",
	)

	// Pull request flags.
	title := flag.String(
		"title", "",
		"Pull request title (empty skips creation)",
	)
	body := flag.String(
		"body", "",
		"Pull request body",
	)
	from := flag.String(
		"from", "",
		"Source branch",
	)
	to := flag.String(
		"to", "main",
		"Target branch",
	)
	draft := flag.Bool(
		"draft", false,
		"Create the pull request as a draft",
	)

	var labels sliceFlag

	flag.Var(
		&labels, "label",
		"Pull request label (repeatable)",
	)

	var reviewers sliceFlag

	flag.Var(
		&reviewers, "reviewer",
		"Reviewer username (repeatable)",
	)

	pushTarget := flag.Bool(
		"push_target", false,
		"Print the push target clone URL (redacted)",
	)

	flag.Parse()

	kind, err := scm.ParseKind(*providerName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	bundle := scm.ConfigBundle{}

	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			return fmt.Errorf(
				"%s: open config: %w", errCtx, err,
			)
		}

		bundle, err = scm.LoadBundle(f)

		_ = f.Close()

		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	sess, err := session.New(kind, bundle)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ctx := context.Background()
	auth := scm.UserAuth{
		Token: os.Getenv("SCM_TOKEN"),
	}

	info, err := sess.Repository(
		ctx, auth, *owner, *repo,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"repository",
		"full_name", info.FullName,
		"default_branch", info.DefaultBranch,
		"private", info.Private,
	)

	if *title != "" {
		res, err := sess.CreatePullRequest(
			ctx, auth,
			scm.PullRequestConfig{
				Owner:        *owner,
				Name:         *repo,
				Title:        *title,
				Body:         *body,
				SourceBranch: *from,
				TargetBranch: *to,
				Draft:        *draft,
				Labels:       labels,
				Reviewers:    reviewers,
			},
		)
		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		slog.Info(
			"pull request",
			"id", res.ID,
			"state", res.State,
			"url", res.WebURL,
		)
	}

	if *pushTarget {
		target, err := sess.PushTarget(
			ctx, *owner, *repo,
		)
		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		slog.Info(
			"push target",
			"clone_url",
			sandbox.RedactURL(target.CloneURL),
			"auth_type", target.Auth.AuthType,
		)
	}

	return nil
}

package sandbox

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/byte4ever/scm_federation/exec"
)

// Target is the work order handed to the sandbox: where
// to clone from (credential embedded in the URL), which
// branch to start on, where to put the clone, and which
// branches to push back.
type Target struct {
	// CloneURL is the tokenized clone/push URL. The
	// embedded credential is opaque and must never be
	// logged.
	CloneURL string
	// Branch is the branch to clone.
	Branch string
	// Dir is the clone destination directory.
	Dir string
	// PushBranches are force-pushed back after the work
	// is done. Empty means clone only.
	PushBranches []string
}

// Syncer is the contract the remote git-executing
// environment implements: clone the target, let the
// caller work in it, push the requested branches back.
type Syncer interface {
	Sync(ctx context.Context, target Target) error
}

// GitSyncer implements Syncer with the system git client.
type GitSyncer struct{}

// Sync clones the target and pushes the requested
// branches. The clone is left in place for the caller.
func (GitSyncer) Sync(
	ctx context.Context,
	target Target,
) error {
	const errCtx = "syncing repository"

	repo, err := Clone(
		ctx,
		target.CloneURL,
		target.Dir,
		target.Branch,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(target.PushBranches) > 0 {
		err := repo.Push(ctx, target.PushBranches)
		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	return nil
}

// Repo is a local clone owned by the sandbox. Create with
// Clone, and call Clean when done.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// Clone clones cloneURL into dir, checking out branch
// only. An existing dir is removed first.
func Clone(
	ctx context.Context,
	cloneURL string,
	dir string,
	branch string,
) (*Repo, error) {
	const errCtx = "cloning repository"

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf(
			"%s: remove dir: %w", errCtx, err,
		)
	}

	remoteName := "origin"

	_, err := exec.Ex(
		ctx, "", "git",
		"clone",
		"--single-branch",
		"--branch", branch,
		"--filter=blob:none",
		"--no-tags",
		"--origin", remoteName,
		cloneURL, dir,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return &Repo{
		Dir:        dir,
		RemoteName: remoteName,
	}, nil
}

// SetPushURL rewires the remote push URL, e.g. to swap in
// a freshly minted push credential.
func (r *Repo) SetPushURL(
	ctx context.Context,
	pushURL string,
) error {
	const errCtx = "setting push url"

	_, err := exec.Ex(
		ctx, r.Dir, "git",
		"remote", "set-url", "--push",
		r.RemoteName, pushURL,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Push force-pushes the given branches to the remote. All
// changes should be committed before calling Push.
func (r *Repo) Push(
	ctx context.Context,
	branches []string,
) error {
	const errCtx = "pushing branches"

	args := append(
		[]string{
			"push", r.RemoteName,
			"-f", "--set-upstream",
		},
		branches...,
	)

	if _, err := exec.Ex(
		ctx, r.Dir, "git", args...,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Clean removes the local clone directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// RedactURL strips the credential from a URL for safe
// display. Unparseable input is masked entirely rather
// than returned.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if u.User != nil {
		u.User = url.User(u.User.Username())
	}

	return u.String()
}

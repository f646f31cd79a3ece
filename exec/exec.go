// Package exec provides shell command execution helpers
// that keep credentials out of logs and errors.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
)

// Ex executes the named command in the given directory
// and returns combined stdout+stderr output. Pass empty
// dir to use the current working directory. Arguments
// carrying a URL userinfo credential are redacted before
// logging and before being embedded in errors; the raw
// output is never logged because git echoes remote URLs
// in its messages.
func Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	safe := redactArgs(arg)

	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(safe, " "),
	)

	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()
	if err != nil {
		return string(by), fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name,
			strings.Join(safe, " "), err,
		)
	}

	return string(by), nil
}

// redactArgs masks the credential part of any URL-shaped
// argument.
func redactArgs(args []string) []string {
	safe := make([]string, len(args))
	for i, a := range args {
		safe[i] = redactArg(a)
	}

	return safe
}

// redactArg strips the password from a URL argument,
// keeping the fixed username literal.
func redactArg(a string) string {
	if !strings.Contains(a, "://") ||
		!strings.Contains(a, "@") {
		return a
	}

	u, err := url.Parse(a)
	if err != nil || u.User == nil {
		return a
	}

	u.User = url.User(u.User.Username())

	return u.String()
}

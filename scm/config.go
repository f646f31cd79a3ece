package scm

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"golang.org/x/oauth2"
)

// ProviderConfig is one entry of the provider-keyed
// configuration bundle.
type ProviderConfig struct {
	// BaseURL overrides the provider's default public
	// host for self-hosted deployments. Authoritative
	// when present.
	BaseURL string `yaml:"base_url"`

	// PushToken is a static push credential.
	PushToken string `yaml:"push_token"`

	// PushTokenSource mints rotating push credentials
	// (e.g. app installation tokens). Takes precedence
	// over PushToken. Not loadable from YAML.
	PushTokenSource oauth2.TokenSource `yaml:"-"`
}

// ConfigBundle keys provider configuration by kind. It is
// passed explicitly into the registry call; nothing in
// this layer reads ambient state.
type ConfigBundle map[ProviderKind]ProviderConfig

// LoadBundle reads a YAML configuration bundle keyed by
// provider identifier. Keys outside the closed provider
// set are rejected.
func LoadBundle(r io.Reader) (ConfigBundle, error) {
	const errCtx = "loading provider config bundle"

	raw := map[string]ProviderConfig{}

	err := yaml.NewDecoder(r).Decode(&raw)
	if errors.Is(err, io.EOF) {
		return ConfigBundle{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf(
			"%s: decoding yaml: %w", errCtx, err,
		)
	}

	bundle := make(ConfigBundle, len(raw))

	for name, cfg := range raw {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		bundle[kind] = cfg
	}

	return bundle, nil
}

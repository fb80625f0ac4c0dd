// Package secrets declares the pluggable trait rudi's core reads secret
// values through (spec §1: "the core only declares which secrets a stack
// requires and reads values through a trait; keychain/file backends are
// pluggable"). A file-backed provider ships built-in; a keychain backend
// is an external implementation of the same interface.
package secrets

import "context"

// ProviderType identifies the secret management backend.
type ProviderType string

const (
	// ProviderFile stores secrets in plaintext JSON at secrets.json
	// (mode 0600), rudi's default backend everywhere (spec §6).
	ProviderFile ProviderType = "file"
	// ProviderKeychain is the macOS-default label recorded in the
	// central config's secrets map (spec §4.F defaultSecretProvider);
	// no in-process implementation ships here — a keychain backend
	// plugs in externally by implementing Provider.
	ProviderKeychain ProviderType = "keychain"
	// ProviderEnv resolves secrets from the OS environment, useful for
	// CI and tests where writing secrets.json is undesirable.
	ProviderEnv ProviderType = "env"
)

// Provider is the trait rudi's core reads/writes secret values through.
// Implementations must be safe for concurrent use.
type Provider interface {
	// GetSecret retrieves a secret value by name. Returns an empty
	// string and ok=false when the name has no configured value.
	GetSecret(ctx context.Context, name string) (value string, ok bool)

	// SetSecret stores a secret value under the given name.
	SetSecret(ctx context.Context, name, value string) error

	// DeleteSecret removes a secret by name. No error if absent.
	DeleteSecret(ctx context.Context, name string) error

	// Type reports the provider backend type.
	Type() ProviderType
}

// ValueFunc adapts a Provider to the `func(name) (string, bool)` shape
// component G's indexer (internal/mcpindex) expects.
func ValueFunc(p Provider) func(string) (string, bool) {
	return func(name string) (string, bool) {
		return p.GetSecret(context.Background(), name)
	}
}

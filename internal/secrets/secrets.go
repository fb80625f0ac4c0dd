package secrets

import "fmt"

// NewProvider builds a Provider for the given backend type. "file" is
// rudi's default; "env" plugs the process environment in for CI/test
// contexts; "keychain" has no in-process implementation (spec §1: an
// external collaborator plugs in a keychain backend by implementing
// Provider and passing it through instead of calling NewProvider).
func NewProvider(kind ProviderType, secretsFilePath string) (Provider, error) {
	switch kind {
	case ProviderFile, "":
		return NewFileProvider(secretsFilePath), nil
	case ProviderEnv:
		return NewEnvProvider(), nil
	case ProviderKeychain:
		return nil, fmt.Errorf("keychain provider: not linked in-process — pass an external Provider implementation")
	default:
		return nil, fmt.Errorf("unknown secrets provider type: %q", kind)
	}
}

package secrets

import (
	"context"
	"os"
	"strings"
	"sync"
)

// EnvProvider resolves secrets from the OS environment, mirroring the
// teacher's EnvProvider key-normalisation convention: callers may spell
// a secret name with dashes or dots and it still resolves against the
// upper-cased, underscore-joined env var.
type EnvProvider struct {
	mu        sync.RWMutex
	overrides map[string]string
}

// NewEnvProvider builds an environment-backed provider. In-process
// SetSecret calls mirror to os.Setenv so spawned subprocesses inherit
// them (spec §4.G's stack-environment overlay).
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{overrides: map[string]string{}}
}

func (p *EnvProvider) Type() ProviderType { return ProviderEnv }

func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	key := normalizeKey(name)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.overrides[key]; ok {
		return v, true
	}
	if v := os.Getenv(key); v != "" {
		return v, true
	}
	return "", false
}

func (p *EnvProvider) SetSecret(_ context.Context, name, value string) error {
	if name == "" {
		return nil
	}
	key := normalizeKey(name)

	p.mu.Lock()
	p.overrides[key] = value
	p.mu.Unlock()

	return os.Setenv(key, value)
}

func (p *EnvProvider) DeleteSecret(_ context.Context, name string) error {
	if name == "" {
		return nil
	}
	key := normalizeKey(name)

	p.mu.Lock()
	delete(p.overrides, key)
	p.mu.Unlock()

	return os.Unsetenv(key)
}

func normalizeKey(name string) string {
	k := strings.ToUpper(name)
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, ".", "_")
	return k
}

package configstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prompt-stack/rudi/internal/platform"
)

// Store wraps the single JSON document at Paths.ConfigFile(), serialising
// every mutation through the advisory lock file (spec §4.F).
type Store struct {
	Paths platform.Paths
}

// New binds a Store to a resolved Paths value.
func New(paths platform.Paths) *Store {
	return &Store{Paths: paths}
}

// InitConfig reads the existing document or creates a new one with
// createRudiConfig defaults, without taking the lock (first-run path has
// no contention to protect against).
func (s *Store) InitConfig() (*Document, error) {
	doc, err := s.read()
	if err == nil {
		return doc, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	doc = createRudiConfig()
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateConfig performs a read-modify-write under the advisory lock,
// invoking modifier between read and write.
func (s *Store) UpdateConfig(modifier func(doc *Document) error) (*Document, error) {
	release, err := acquireLock(s.Paths.ConfigLockFile())
	if err != nil {
		return nil, err
	}
	defer release()

	doc, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		doc = createRudiConfig()
	} else if err != nil {
		return nil, err
	}

	if err := modifier(doc); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// AddStack derives the launch config, records required secrets, and
// upserts the stack entry.
func (s *Store) AddStack(id, name, version, stackPath string, command []string, runtimeTag string, secrets []StackSecretRef) (*Document, error) {
	return s.UpdateConfig(func(doc *Document) error {
		launch := createLaunchConfig(command, runtimeTag, stackPath, s.resolveRuntimeBin(doc, runtimeTag))
		doc.Stacks[id] = StackConfig{
			ID: id, Name: name, Version: version, Path: stackPath,
			Launch: launch, Secrets: secrets,
		}
		for _, sec := range secrets {
			if _, exists := doc.Secrets[sec.Name]; exists {
				continue
			}
			doc.Secrets[sec.Name] = SecretConfig{
				Configured: false,
				Provider:   defaultSecretProvider(),
				Stack:      id,
				Required:   sec.Required,
			}
		}
		return nil
	})
}

// RemoveStack deletes the stack entry, then deletes any secret pointing
// at it that's no longer required by a remaining stack.
func (s *Store) RemoveStack(id string) (*Document, error) {
	return s.UpdateConfig(func(doc *Document) error {
		delete(doc.Stacks, id)
		for name, sec := range doc.Secrets {
			if sec.Stack != id {
				continue
			}
			if s.stillRequired(doc, name) {
				continue
			}
			delete(doc.Secrets, name)
		}
		return nil
	})
}

func (s *Store) stillRequired(doc *Document, secretName string) bool {
	for _, stack := range doc.Stacks {
		for _, ref := range stack.Secrets {
			if ref.Name == secretName {
				return true
			}
		}
	}
	return false
}

// UpdateStackTools replaces the cached tool list for a stack.
func (s *Store) UpdateStackTools(id string, tools []CachedTool) (*Document, error) {
	return s.UpdateConfig(func(doc *Document) error {
		stack, ok := doc.Stacks[id]
		if !ok {
			return nil
		}
		stack.Tools = tools
		doc.Stacks[id] = stack
		return nil
	})
}

// AddRuntime records a runtime's resolved path/bin/version.
func (s *Store) AddRuntime(name string, rec RuntimeRecord) (*Document, error) {
	return s.UpdateConfig(func(doc *Document) error {
		doc.Runtimes[name] = rec
		return nil
	})
}

// UpdateSecretStatus flips a secret's configured flag and last-updated
// timestamp.
func (s *Store) UpdateSecretStatus(name string, configured bool) (*Document, error) {
	return s.UpdateConfig(func(doc *Document) error {
		sec, ok := doc.Secrets[name]
		if !ok {
			sec = SecretConfig{Provider: defaultSecretProvider()}
		}
		sec.Configured = configured
		now := time.Now().UTC()
		sec.LastUpdated = &now
		doc.Secrets[name] = sec
		return nil
	})
}

func (s *Store) resolveRuntimeBin(doc *Document, runtimeTag string) string {
	if rec, ok := doc.Runtimes[runtimeTag]; ok {
		return rec.Bin
	}
	return s.Paths.InstallDir(string(platform.KindRuntime), runtimeTag) + "/bin/" + runtimeTag
}

func defaultSecretProvider() string {
	if runtime.GOOS == "darwin" {
		return "keychain"
	}
	return "secrets.json"
}

func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.Paths.ConfigFile())
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// write serialises doc to a temp file and renames it over the target,
// reasserting mode 0600 (spec §4.F atomic-replace contract).
func (s *Store) write(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.Paths.ConfigFile()), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Paths.ConfigFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Paths.ConfigFile()); err != nil {
		return err
	}
	return os.Chmod(s.Paths.ConfigFile(), 0o600)
}

// Package platform resolves rudi's well-known directory layout under
// $HOME/.rudi/ and the <os>-<arch> platform tag used to select download
// artifacts (spec §4.A).
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/prompt-stack/rudi/internal/errorkinds"
)

// AppDirName is the directory name under $HOME that hosts all rudi state.
const AppDirName = ".rudi"

// EnvConfig holds the environment-variable overrides spec §6 names.
// Parsed with caarlos0/env rather than scattered os.Getenv calls.
type EnvConfig struct {
	UseLocalRegistry bool   `env:"USE_LOCAL_REGISTRY"`
	ResourcesPath    string `env:"RESOURCES_PATH"`
}

// LoadEnvConfig parses the process environment into an EnvConfig.
func LoadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment config: %w", err)
	}
	return cfg, nil
}

// Paths is a value-typed record exposing every well-known path beneath
// the application home directory.
type Paths struct {
	Home      string
	Packages  string
	Stacks    string
	Prompts   string
	Runtimes  string
	Binaries  string
	Agents    string
	Store     string
	Bins      string
	Locks     string
	Vault     string
	DB        string
	Cache     string
	Config    string
	Logs      string
	Downloads string
}

// New computes Paths for the given home directory. Pass "" to resolve
// $HOME/.rudi automatically.
func New(homeOverride string) (Paths, error) {
	home := homeOverride
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve user home: %w", err)
		}
		home = filepath.Join(userHome, AppDirName)
	}

	p := Paths{
		Home:      home,
		Packages:  filepath.Join(home, "packages"),
		Stacks:    filepath.Join(home, "stacks"),
		Prompts:   filepath.Join(home, "prompts"),
		Runtimes:  filepath.Join(home, "runtimes"),
		Binaries:  filepath.Join(home, "binaries"),
		Agents:    filepath.Join(home, "agents"),
		Store:     filepath.Join(home, "store"),
		Bins:      filepath.Join(home, "bins"),
		Locks:     filepath.Join(home, "locks"),
		Vault:     filepath.Join(home, "vault"),
		DB:        filepath.Join(home, "db"),
		Cache:     filepath.Join(home, "cache"),
		Config:    home,
		Logs:      filepath.Join(home, "logs"),
		Downloads: filepath.Join(home, "cache", "downloads"),
	}
	return p, nil
}

// ConfigFile is the central JSON document's path (spec §4.F, §6).
func (p Paths) ConfigFile() string { return filepath.Join(p.Config, "rudi.json") }

// ConfigLockFile is the advisory lock sentinel for ConfigFile.
func (p Paths) ConfigLockFile() string { return p.ConfigFile() + ".lock" }

// SecretsFile is the plaintext secrets backend file (mode 0600).
func (p Paths) SecretsFile() string { return filepath.Join(p.Config, "secrets.json") }

// RegistryCacheFile is the cached registry index.
func (p Paths) RegistryCacheFile() string { return filepath.Join(p.Cache, "registry.json") }

// ToolIndexCacheFile is the MCP tool-index cache (spec §3, component G).
func (p Paths) ToolIndexCacheFile() string { return filepath.Join(p.Cache, "tool-index.json") }

// SessionDBFile is the embedded SQL engine's single file.
func (p Paths) SessionDBFile() string { return filepath.Join(p.DB, "rudi.db") }

// EnsureDirectories creates every directory in Paths if missing. Idempotent.
func (p Paths) EnsureDirectories() error {
	dirs := []string{
		p.Home, p.Packages, p.Stacks, p.Prompts, p.Runtimes, p.Binaries,
		p.Agents, p.Store, p.Bins, p.Locks, p.Vault, p.DB, p.Cache,
		p.Logs, p.Downloads,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LockSubdir returns the per-kind lock subdirectory, pluralising "binary"
// as "binaries" per spec §4.E.
func (p Paths) LockSubdir(kind string) string {
	return filepath.Join(p.Locks, pluralKind(kind))
}

// LockFile returns the path of a package's lockfile (spec §3, §4.E).
func (p Paths) LockFile(kind, name string) string {
	return filepath.Join(p.LockSubdir(kind), name+".lock.yaml")
}

// InstallDir returns the directory a package of the given kind/name is
// installed into.
func (p Paths) InstallDir(kind, name string) string {
	switch Kind(kind) {
	case KindStack:
		return filepath.Join(p.Stacks, name)
	case KindPrompt:
		return filepath.Join(p.Prompts, name)
	case KindRuntime:
		return filepath.Join(p.Runtimes, name)
	case KindBinary:
		return filepath.Join(p.Binaries, name)
	case KindAgent:
		return filepath.Join(p.Agents, name)
	default:
		return filepath.Join(p.Packages, name)
	}
}

func pluralKind(kind string) string {
	if kind == string(KindBinary) {
		return "binaries"
	}
	return kind + "s"
}

// Kind is one of the five package kinds rudi manages.
type Kind string

const (
	KindStack   Kind = "stack"
	KindPrompt  Kind = "prompt"
	KindRuntime Kind = "runtime"
	KindBinary  Kind = "binary"
	KindAgent   Kind = "agent"
)

var validKinds = map[Kind]bool{
	KindStack: true, KindPrompt: true, KindRuntime: true, KindBinary: true, KindAgent: true,
}

var nameRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// ParsePackageID splits a fully qualified or short package ID into its
// kind and name. Short IDs (no "<kind>:" prefix) default to "stack".
func ParsePackageID(id string) (kind Kind, name string, err error) {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			k := Kind(id[:i])
			n := id[i+1:]
			if !validKinds[k] || !nameRe.MatchString(n) {
				return "", "", &errorkinds.InvalidPackageIDError{ID: id}
			}
			return k, n, nil
		}
	}
	if !nameRe.MatchString(id) {
		return "", "", &errorkinds.InvalidPackageIDError{ID: id}
	}
	return KindStack, id, nil
}

// CreatePackageID renders a fully qualified package ID from kind and name.
func CreatePackageID(kind Kind, name string) string {
	return fmt.Sprintf("%s:%s", kind, name)
}

// NormalizeID normalizes a bare/unprefixed reference to its full id,
// defaulting the kind when unprefixed (used by requires.* resolution
// in component D, which may fall back to legacy singular fields).
//
// Unlike ParsePackageID, which always defaults a bare id to "stack",
// NormalizeID must respect the caller's declared kind (spec §3: bare
// requires.{runtimes,binaries,agents} entries normalize to their own
// kind, not to "stack"), so it branches on prefix presence directly
// rather than deferring to ParsePackageID's stack default.
func NormalizeID(id string, defaultKind Kind) string {
	if !strings.Contains(id, ":") {
		if !nameRe.MatchString(id) {
			return id
		}
		return CreatePackageID(defaultKind, id)
	}
	if _, _, err := ParsePackageID(id); err != nil {
		return id
	}
	return id
}

// Arch normalizes GOARCH to the spec's x64/arm64 convention; other values
// pass through unchanged.
func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "arm64":
		return "arm64"
	default:
		return runtime.GOARCH
	}
}

// OS returns the runtime's GOOS (darwin, linux, windows -> win32 per spec's
// glossary, which otherwise passes through).
func OS() string {
	if runtime.GOOS == "windows" {
		return "win32"
	}
	return runtime.GOOS
}

// PlatformArch returns "<os>-<arch>", e.g. "darwin-arm64".
func PlatformArch() string {
	return fmt.Sprintf("%s-%s", OS(), Arch())
}

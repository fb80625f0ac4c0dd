// Package installer executes the install plan the resolver produces:
// per-kind download/build strategies, lockfile writing, uninstall,
// listing, and update/updateAll (spec §4.E).
package installer

import (
	"github.com/prompt-stack/rudi/internal/configstore"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

// Phase is one stage of the installer's progress event stream.
type Phase string

const (
	PhaseResolving   Phase = "resolving"
	PhaseDownloading Phase = "downloading"
	PhaseExtracting  Phase = "extracting"
	PhaseInstalling  Phase = "installing"
	PhaseLockfile    Phase = "lockfile"
	PhaseInstalled   Phase = "installed"
)

// ProgressEvent is emitted during InstallPackage; consumers may ignore it.
type ProgressEvent struct {
	Phase   Phase
	Package string
	Total   int
	Current int
	Message string
}

// OnProgress is a progress sink. A nil func is valid and simply discards
// events.
type OnProgress func(ProgressEvent)

func emit(fn OnProgress, ev ProgressEvent) {
	if fn != nil {
		fn(ev)
	}
}

// Options configures a single InstallPackage invocation.
type Options struct {
	Force      bool
	OnProgress OnProgress
}

// Result is the outcome of installing one package.
type Result struct {
	Success   bool
	ID        string
	Kind      platform.Kind
	Name      string
	Version   string
	DependsOn []string
	Lockfile  *Lockfile
	Error     error
}

// Installer ties together the registry client, resolver, and config
// store to execute install plans.
type Installer struct {
	Paths    platform.Paths
	Registry *registryclient.Client
	Config   *configstore.Store
}

// New builds an Installer from its three collaborators.
func New(paths platform.Paths, registry *registryclient.Client, config *configstore.Store) *Installer {
	return &Installer{Paths: paths, Registry: registry, Config: config}
}


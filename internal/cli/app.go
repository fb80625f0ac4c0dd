package cli

import (
	"fmt"

	"github.com/prompt-stack/rudi/internal/configstore"
	"github.com/prompt-stack/rudi/internal/installer"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registrar"
	"github.com/prompt-stack/rudi/internal/registryclient"
	"github.com/prompt-stack/rudi/internal/secrets"
	"github.com/prompt-stack/rudi/internal/sessiondb"
)

// app bundles the collaborators every subcommand needs. It's built once
// in PersistentPreRunE and stashed on the root command's context.
type app struct {
	Paths     platform.Paths
	Config    *configstore.Store
	Registry  *registryclient.Client
	Installer *installer.Installer
	Registrar *registrar.Registrar
	Secrets   secrets.Provider
}

func newApp(home string, useLocalRegistry bool) (*app, error) {
	paths, err := platform.New(home)
	if err != nil {
		return nil, fmt.Errorf("resolve rudi home: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure rudi directories: %w", err)
	}

	envCfg, err := platform.LoadEnvConfig()
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	config := configstore.New(paths)
	if _, err := config.InitConfig(); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	localIndexDir := ""
	if useLocalRegistry || envCfg.UseLocalRegistry {
		envCfg.UseLocalRegistry = true
		localIndexDir = envCfg.ResourcesPath
	}

	secretsProvider, err := secrets.NewProvider(secrets.ProviderFile, paths.SecretsFile())
	if err != nil {
		return nil, fmt.Errorf("init secrets provider: %w", err)
	}

	registryClient := registryclient.NewClient(paths, envCfg, localIndexDir)

	return &app{
		Paths:     paths,
		Config:    config,
		Registry:  registryClient,
		Installer: installer.New(paths, registryClient, config),
		Registrar: registrar.New(paths.Home),
		Secrets:   secretsProvider,
	}, nil
}

// openSessionDB lazily opens the session database; callers must Close it.
func (a *app) openSessionDB() (*sessiondb.DB, *sessiondb.Store, error) {
	db, err := sessiondb.Open(a.Paths.SessionDBFile())
	if err != nil {
		return nil, nil, fmt.Errorf("open session db: %w", err)
	}
	return db, sessiondb.NewStore(db), nil
}

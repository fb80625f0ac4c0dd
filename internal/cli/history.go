package cli

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prompt-stack/rudi/internal/installer"
	"github.com/prompt-stack/rudi/internal/logger"
	"github.com/prompt-stack/rudi/internal/sessiondb"
)

// recordInstallHistory mirrors a completed install into the session DB's
// Package/Run/Artifact/Lockfile tables (spec §3) for historical
// reporting. The session DB is independent of the install flow (spec
// §2's control-flow note), so any failure here is logged and swallowed
// rather than surfaced to the caller.
func recordInstallHistory(result installer.Result) {
	if !result.Success {
		return
	}

	db, store, err := theApp.openSessionDB()
	if err != nil {
		logger.Debugf("history: skip recording %s: %v", result.ID, err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Format(time.RFC3339)

	pkg := sessiondb.Package{
		ID: result.ID, Kind: string(result.Kind), Name: result.Name,
		Version: result.Version, Source: "registry", InstalledAt: now,
	}
	if err := store.RecordPackage(ctx, pkg); err != nil {
		logger.Debugf("history: record package %s: %v", result.ID, err)
		return
	}

	for _, depID := range result.DependsOn {
		if err := store.RecordPackageDep(ctx, result.ID, depID); err != nil {
			logger.Debugf("history: record dep %s->%s: %v", result.ID, depID, err)
		}
	}

	run := sessiondb.Run{
		ID: uuid.NewString(), PackageID: result.ID,
		StartedAt: now, FinishedAt: &now, Status: "installed",
	}
	if err := store.RecordRun(ctx, run); err != nil {
		logger.Debugf("history: record run for %s: %v", result.ID, err)
		return
	}

	if result.Lockfile != nil {
		lf := sessiondb.Lockfile{
			ID: uuid.NewString(), PackageID: result.ID,
			Version: result.Lockfile.Version, Checksum: result.Lockfile.Checksum, CreatedAt: now,
		}
		if err := store.RecordLockfile(ctx, lf); err != nil {
			logger.Debugf("history: record lockfile for %s: %v", result.ID, err)
		}

		artifact := sessiondb.Artifact{
			ID: uuid.NewString(), RunID: run.ID,
			Path: result.ID, Checksum: result.Lockfile.Checksum, CreatedAt: now,
		}
		if err := store.RecordArtifact(ctx, artifact); err != nil {
			logger.Debugf("history: record artifact for %s: %v", result.ID, err)
		}
	}
}

// recordLocalInstallHistory mirrors a local (--from-dir) install, which
// bypasses the resolver/lockfile path and so only has a Package row to
// contribute.
func recordLocalInstallHistory(id, name, version string) {
	db, store, err := theApp.openSessionDB()
	if err != nil {
		logger.Debugf("history: skip recording %s: %v", id, err)
		return
	}
	defer db.Close()

	pkg := sessiondb.Package{
		ID: id, Kind: "stack", Name: name, Version: version,
		Source: "local", InstalledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.RecordPackage(context.Background(), pkg); err != nil {
		logger.Debugf("history: record local package %s: %v", id, err)
	}
}

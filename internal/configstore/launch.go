package configstore

// createLaunchConfig derives a stack's launch record from its manifest
// command array and runtime tag (spec §4.F).
//
// bundledRuntimeBin is the resolved path to the runtime's own binary
// (e.g. the installed node/python executable); it is substituted for
// "node"/"python"/"python3"/"npx" so launches never depend on whatever
// happens to be on the caller's PATH.
func createLaunchConfig(command []string, runtimeTag, stackPath, bundledRuntimeBin string) LaunchConfig {
	if len(command) == 0 {
		args := []string{"dist/index.js"}
		if runtimeTag == "python" {
			args = []string{"-u", "src/server.py"}
		}
		return LaunchConfig{Bin: bundledRuntimeBin, Args: args, Cwd: stackPath}
	}

	bin := command[0]
	args := append([]string{}, command[1:]...)

	switch bin {
	case "node", "python", "python3":
		bin = bundledRuntimeBin
	case "npx":
		bin = bundledNpxBin(bundledRuntimeBin)
	}

	return LaunchConfig{Bin: bin, Args: args, Cwd: stackPath}
}

// bundledNpxBin derives the npx sibling of a bundled node binary path
// (".../bin/node" -> ".../bin/npx").
func bundledNpxBin(nodeBin string) string {
	if len(nodeBin) >= 4 && nodeBin[len(nodeBin)-4:] == "node" {
		return nodeBin[:len(nodeBin)-4] + "npx"
	}
	return nodeBin
}

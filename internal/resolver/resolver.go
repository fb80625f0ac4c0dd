// Package resolver expands a requested package into its transitive
// dependency tree and a topological install order (spec §4.D).
package resolver

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

// ResolvedNode is one node of the dependency tree rooted at the
// requested package. Runtimes, binaries, and agents are registry leaf
// packages, so their own dependencies are never expanded further.
type ResolvedNode struct {
	ID           string
	Kind         platform.Kind
	Name         string
	Version      string
	Installed    bool
	Descriptor   *registryclient.PackageDescriptor
	Dependencies []*ResolvedNode
}

// Resolver expands package IDs against a registry index and the
// on-disk install state.
type Resolver struct {
	Paths platform.Paths
	Index *registryclient.Index
}

// New builds a Resolver bound to a fetched index and install paths.
func New(paths platform.Paths, idx *registryclient.Index) *Resolver {
	return &Resolver{Paths: paths, Index: idx}
}

// Resolve normalises id, fetches its descriptor, and constructs the
// dependency tree. Direct dependency kinds (runtimes, binaries, agents)
// become leaf children; legacy singular `runtime`/`tools` fields are
// consulted when the ordered-array fields are empty.
func (r *Resolver) Resolve(id string) (*ResolvedNode, error) {
	normalized := platform.NormalizeID(id, platform.KindStack)
	_, name, err := platform.ParsePackageID(normalized)
	if err != nil {
		return nil, err
	}

	kind, desc, ok := r.Index.GetPackage(normalized)
	if !ok {
		return nil, &errorkinds.PackageNotFoundError{ID: normalized}
	}

	root := &ResolvedNode{
		ID: desc.ID, Kind: kind, Name: name, Version: desc.Version,
		Installed: r.isInstalled(kind, name), Descriptor: desc,
	}

	deps := r.directDependencyIDs(desc)
	for _, depID := range deps {
		depKind, depName, err := platform.ParsePackageID(depID)
		if err != nil {
			continue
		}
		_, depDesc, ok := r.Index.GetPackage(depID)
		if !ok {
			return nil, &errorkinds.PackageNotFoundError{ID: depID}
		}
		root.Dependencies = append(root.Dependencies, &ResolvedNode{
			ID: depDesc.ID, Kind: depKind, Name: depName, Version: depDesc.Version,
			Installed: r.isInstalled(depKind, depName), Descriptor: depDesc,
		})
	}

	return root, nil
}

// directDependencyIDs reads requires.{runtimes,binaries,agents}, falling
// back to the legacy singular `runtime`/`tools` fields when the ordered
// arrays are empty.
func (r *Resolver) directDependencyIDs(desc *registryclient.PackageDescriptor) []string {
	var ids []string
	req := desc.Requires

	add := func(list []string, kind platform.Kind) {
		for _, raw := range list {
			ids = append(ids, platform.NormalizeID(raw, kind))
		}
	}

	add(req.Runtimes, platform.KindRuntime)
	add(req.Binaries, platform.KindBinary)
	add(req.Agents, platform.KindAgent)

	if len(req.Runtimes) == 0 && req.Runtime != "" {
		ids = append(ids, platform.NormalizeID(req.Runtime, platform.KindRuntime))
	}
	if len(req.Binaries) == 0 && req.Tools != "" {
		for _, name := range strings.Split(req.Tools, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			ids = append(ids, platform.NormalizeID(name, platform.KindBinary))
		}
	}
	return ids
}

func (r *Resolver) isInstalled(kind platform.Kind, name string) bool {
	installDir := r.Paths.InstallDir(string(kind), name)
	_, err := os.Stat(installDir + "/manifest.json")
	if err == nil {
		return true
	}
	_, err = os.Stat(installDir + "/runtime.json")
	return err == nil
}

// InstallOrder walks the tree depth-first, post-order, skipping nodes
// already installed and deduplicating by id via a visited set. The
// result sequence has every dependency before its dependent.
func InstallOrder(root *ResolvedNode, force bool) []*ResolvedNode {
	visited := make(map[string]bool)
	var order []*ResolvedNode

	var walk func(n *ResolvedNode, isRoot bool)
	walk = func(n *ResolvedNode, isRoot bool) {
		if visited[n.ID] {
			return
		}
		for _, dep := range n.Dependencies {
			walk(dep, false)
		}
		visited[n.ID] = true
		if n.Installed && !(isRoot && force) {
			return
		}
		order = append(order, n)
	}
	walk(root, true)
	return order
}

var constraintRe = regexp.MustCompile(`^(=|>=|<=|>|<)?(\d+)(?:\.(\d+))?(?:\.(\d+))?$`)

// SatisfiesVersion evaluates "<op><major>[.<minor>[.<patch>]]" against
// actual, comparing lexicographically on the numeric triple. A missing
// or unparseable constraint is always satisfied (spec §4.D permissive
// policy).
func SatisfiesVersion(actual, constraint string) bool {
	if constraint == "" {
		return true
	}
	m := constraintRe.FindStringSubmatch(constraint)
	if m == nil {
		return true
	}
	op := m[1]
	if op == "" {
		op = "="
	}
	want := [3]int{parseIntOr(m[2], 0), parseIntOr(m[3], 0), parseIntOr(m[4], 0)}

	got, ok := parseTriple(actual)
	if !ok {
		return true
	}

	cmp := compareTriple(got, want)
	switch op {
	case "=":
		return cmp == 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	default:
		return true
	}
}

func parseTriple(v string) ([3]int, bool) {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, ".", 3)
	var out [3]int
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

func compareTriple(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// String renders a ResolvedNode tree for debugging/CLI display.
func (n *ResolvedNode) String() string {
	return fmt.Sprintf("%s@%s (installed=%v, deps=%d)", n.ID, n.Version, n.Installed, len(n.Dependencies))
}

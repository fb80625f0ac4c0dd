package registryclient

import (
	"strings"

	"github.com/prompt-stack/rudi/internal/platform"
)

// Search performs a case-insensitive substring match over each
// descriptor's id, name, description, and tags joined by spaces (spec
// §4.B). An empty kind filter searches all kinds in a fixed order.
func (idx *Index) Search(query string, kind platform.Kind) []SearchHit {
	q := strings.ToLower(query)
	kinds := allKinds
	if kind != "" {
		kinds = []platform.Kind{kind}
	}

	var hits []SearchHit
	for _, k := range kinds {
		bucket := idx.bucket(k)
		if bucket == nil {
			continue
		}
		for _, list := range [][]PackageDescriptor{bucket.Official, bucket.Community} {
			for _, d := range list {
				haystack := strings.ToLower(strings.Join(
					append([]string{d.ID, d.Name, d.Description}, d.Tags...), " "))
				if strings.Contains(haystack, q) {
					hits = append(hits, SearchHit{Kind: k, PackageDescriptor: d})
				}
			}
		}
	}
	return hits
}

// GetPackage resolves either a "kind:name" or bare "name" reference.
// Bare references scan all kinds. Matches by exact id or by name after
// stripping a valid kind prefix from the descriptor's own id.
func (idx *Index) GetPackage(ref string) (platform.Kind, *PackageDescriptor, bool) {
	kind, name, err := platform.ParsePackageID(ref)
	kinds := allKinds
	if err == nil && strings.Contains(ref, ":") {
		kinds = []platform.Kind{kind}
	}

	for _, k := range kinds {
		bucket := idx.bucket(k)
		if bucket == nil {
			continue
		}
		for _, list := range [][]PackageDescriptor{bucket.Official, bucket.Community} {
			for i := range list {
				d := list[i]
				if d.ID == ref || d.ID == name {
					return k, &d, true
				}
				if _, dn, err := platform.ParsePackageID(d.ID); err == nil && dn == name {
					return k, &d, true
				}
			}
		}
	}
	return "", nil, false
}

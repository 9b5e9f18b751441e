package kaitaischema

import "strings"

// mergeImport resolves and merges one `meta.imports` entry into cs, per §4.4
// and the "Imports and namespacing" design note (§9): the namespace prefix
// is the last `/`-separated segment of the import path, merge is recursive
// and depth-first (an imported schema's own imports are merged first, then
// its types/enums), and pre-existing local definitions are never overridden.
func (n *normalizer) mergeImport(cs *CompiledSchema, path string, seen map[string]bool) {
	if seen[path] {
		return
	}
	seen[path] = true

	data, err := n.opts.ResolveImport(path)
	if err != nil {
		n.errf("meta.imports", "failed to resolve import %q: %v", path, err)
		return
	}
	raw, err := ParseRawYAML(data)
	if err != nil {
		n.errf("meta.imports", "failed to parse import %q: %v", path, err)
		return
	}

	imported, _, _ := Normalize(raw, Options{ResolveImport: n.opts.ResolveImport})

	ns := namespaceOf(path)

	for _, nestedImport := range raw.Meta.Imports {
		n.mergeImport(cs, nestedImport, seen)
	}

	for name, t := range imported.Types {
		key := ns + "::" + name
		if _, exists := cs.Types[key]; !exists {
			cs.Types[key] = t
		}
	}
	for name, e := range imported.Enums {
		key := ns + "::" + name
		if _, exists := cs.Enums[key]; !exists {
			cs.Enums[key] = e
		}
	}
}

func namespaceOf(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

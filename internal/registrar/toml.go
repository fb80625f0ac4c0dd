package registrar

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// tomlTable is one `[dotted.table.name]` section, preserving source
// key order for stable round-tripping.
type tomlTable struct {
	name   string
	keys   []string
	values map[string]string // pre-rendered TOML value literals
}

// tomlDocument is a minimal TOML model supporting exactly what spec
// §4.H requires: top-level key-values, bracketed tables with dotted
// paths, and string/bool/number/array-of-string values. It is not a
// general-purpose TOML parser.
type tomlDocument struct {
	rootKeys   []string
	rootValues map[string]string
	tables     []*tomlTable
}

func newTomlDocument() *tomlDocument {
	return &tomlDocument{rootValues: map[string]string{}}
}

// parseTomlDocument validates the file with go-toml/v2 before the
// hand-rolled line-oriented parse below, so a malformed third-party
// config.toml fails with a clear error instead of being silently
// misread by the minimal scanner.
func parseTomlDocument(data []byte) (*tomlDocument, error) {
	var probe map[string]interface{}
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	doc := newTomlDocument()
	var current *tomlTable

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			current = &tomlTable{name: name, values: map[string]string{}}
			doc.tables = append(doc.tables, current)
			continue
		}

		key, value, ok := splitTomlKV(line)
		if !ok {
			continue
		}
		if current == nil {
			doc.rootKeys = append(doc.rootKeys, key)
			doc.rootValues[key] = value
		} else {
			current.keys = append(current.keys, key)
			current.values[key] = value
		}
	}
	return doc, scanner.Err()
}

func splitTomlKV(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// table finds a table by exact dotted name.
func (d *tomlDocument) table(name string) *tomlTable {
	for _, t := range d.tables {
		if t.name == name {
			return t
		}
	}
	return nil
}

// setTable replaces a table's contents, appending a new one (with the
// blank-line-before-table convention) if it did not already exist.
func (d *tomlDocument) setTable(name string, keys []string, values map[string]string) {
	if t := d.table(name); t != nil {
		t.keys = keys
		t.values = values
		return
	}
	d.tables = append(d.tables, &tomlTable{name: name, keys: keys, values: values})
}

// removeTable deletes a table by exact name; returns false if it was
// not present.
func (d *tomlDocument) removeTable(name string) bool {
	for i, t := range d.tables {
		if t.name == name {
			d.tables = append(d.tables[:i], d.tables[i+1:]...)
			return true
		}
	}
	return false
}

func (d *tomlDocument) render() []byte {
	var b strings.Builder
	for _, k := range d.rootKeys {
		fmt.Fprintf(&b, "%s = %s\n", k, d.rootValues[k])
	}
	for _, t := range d.tables {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%s]\n", t.name)
		for _, k := range t.keys {
			fmt.Fprintf(&b, "%s = %s\n", k, t.values[k])
		}
	}
	return []byte(b.String())
}

func tomlQuoteString(s string) string {
	return strconv.Quote(s)
}

func tomlStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = tomlQuoteString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func readTomlDocument(path string) (*tomlDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newTomlDocument(), nil
		}
		return nil, err
	}
	return parseTomlDocument(data)
}

func writeTomlDocument(path string, doc *tomlDocument) error {
	return os.WriteFile(path, doc.render(), 0o644)
}

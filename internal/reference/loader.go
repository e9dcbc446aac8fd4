package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog maps an enum name to its directory.
type Catalog map[string]EnumDirectory

// LoadEnumCatalog читает все enum-справочники из папки dir (*.yaml, *.yml).
func LoadEnumCatalog(dir string) (Catalog, error) {
	result := make(Catalog)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// имя справочника — из enumDir.Name или из имени файла
		enumName := enumDir.Name
		if enumName == "" {
			enumName = strings.TrimSuffix(name, filepath.Ext(name))
		}
		result[enumName] = enumDir
	}
	return result, nil
}

// Values returns the item codes of enum name ordered by Order, then file
// order. ok is false when the enum is absent or empty.
func (c Catalog) Values(name string) (values []string, ok bool) {
	dir, found := c[name]
	if !found || len(dir.Items) == 0 {
		return nil, false
	}
	items := make([]EnumItem, len(dir.Items))
	copy(items, dir.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	for _, it := range items {
		values = append(values, it.Code)
	}
	return values, true
}

// ValuesOr is Values with a fallback for a missing catalog or enum.
func (c Catalog) ValuesOr(name string, fallback ...string) []string {
	if v, ok := c.Values(name); ok {
		return v
	}
	return fallback
}

package policy

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadRegoFiles reads every .rego module under dir, keyed by its slash
// separated path relative to dir. Rego unit tests (*_test.rego) are skipped
// so a bundle can ship them next to the policies.
func LoadRegoFiles(dir string) (map[string]string, error) {
	modules := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || filepath.Ext(name) != ".rego" || strings.HasSuffix(name, "_test.rego") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		modules[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// assets/embed.go
//
// Files compiled into the binary:
//   - sql/*.sql:          SQLite migrations for the session store, applied in lexical order.
//   - locales/*.yaml:     view message catalogs, one file per language.

package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed sql/*.sql locales/*.yaml
var FS embed.FS

// File is a named embedded file.
type File struct {
	Name string
	Body []byte
}

// readDir returns every file in dir with the given suffix, sorted by name.
func readDir(dir, suffix string) ([]File, error) {
	entries, err := fs.ReadDir(FS, dir)
	if err != nil {
		return nil, err
	}
	var out []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			continue
		}
		b, err := FS.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, File{Name: e.Name(), Body: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func Migrations() ([]File, error) {
	return readDir("sql", ".sql")
}

func Locales() ([]File, error) {
	return readDir("locales", ".yaml")
}

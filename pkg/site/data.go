package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"
)

// LoadData decodes the data directory into Site.Data. YAML files decode as
// documents; Starlark files execute and contribute their exported globals as
// a dictionary. Each file lands under its base name.
func LoadData(s *Site, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		ext := filepath.Ext(name)
		key := strings.TrimSuffix(name, ext)

		switch ext {
		case ".yaml", ".yml", ".json":
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var doc any
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decoding data file %s: %w", path, err)
			}
			s.Data[key] = doc

		case ".star":
			doc, err := execDataScript(path)
			if err != nil {
				return fmt.Errorf("executing data script %s: %w", path, err)
			}
			s.Data[key] = doc
		}
	}
	return nil
}

// execDataScript runs one Starlark file and collects its exported globals.
func execDataScript(path string) (map[string]any, error) {
	thread := &starlark.Thread{Name: "tsumo-data"}
	globals, err := starlark.ExecFile(thread, path, nil, nil)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for key, val := range globals {
		if strings.HasPrefix(key, "_") {
			continue
		}
		out[key] = fromStarlark(val)
	}
	return out, nil
}

// fromStarlark converts a Starlark value into a plain Go value the data dict
// can hold. Unknown types fall back to their string form.
func fromStarlark(val starlark.Value) any {
	if val == nil || val == starlark.None {
		return nil
	}
	switch v := val.(type) {
	case starlark.String:
		return string(v)
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		items := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			items = append(items, fromStarlark(v.Index(i)))
		}
		return items
	case *starlark.Dict:
		dict := map[string]any{}
		for _, item := range v.Items() {
			key, value := item[0], item[1]
			if ks, ok := key.(starlark.String); ok {
				dict[string(ks)] = fromStarlark(value)
			} else {
				dict[key.String()] = fromStarlark(value)
			}
		}
		return dict
	default:
		return val.String()
	}
}

// Package store persists named filters between runs.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nethoundsh/localfilter/pkg/filter"
	"gopkg.in/yaml.v3"
)

// EnvPath overrides FilePath when set.
const EnvPath = "LOCALFILTER_FILTERS"

var ErrNotFound = errors.New("saved filter not found")

// FilePath returns the OS-standard saved-filter path
// (e.g. ~/.config/localfilter/filters.json on Linux).
func FilePath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(configDir, "localfilter", "filters.json"), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the file into a map. The format follows the extension: .yaml
// and .yml are YAML, anything else is JSON. A missing file returns an empty
// map.
func Load[V any](path string) (map[string]V, error) {
	data := make(map[string]V)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if isYAML(path) {
		err = yaml.Unmarshal(raw, &data)
	} else {
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if data == nil {
		data = make(map[string]V)
	}
	return data, nil
}

// Save writes to a .tmp file first, then atomically renames it to prevent
// corruption from mid-write crashes.
func Save[V any](path string, data map[string]V) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var (
		out []byte
		err error
	)
	if isYAML(path) {
		out, err = yaml.Marshal(data)
	} else {
		out, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("committing %s: %w", path, err)
	}
	return nil
}

// Get returns the saved filter input called name. Names are compared
// after trimming surrounding whitespace, as Put stores them.
func Get(path, name string) (filter.Input, error) {
	name = strings.TrimSpace(name)
	filters, err := Load[filter.Input](path)
	if err != nil {
		return filter.Input{}, err
	}
	in, ok := filters[name]
	if !ok {
		return filter.Input{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return in, nil
}

// Put stores in under name, replacing any previous filter with that name.
func Put(path, name string, in filter.Input) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("saved filter name is empty")
	}
	filters, err := Load[filter.Input](path)
	if err != nil {
		return err
	}
	filters[name] = in
	return Save(path, filters)
}

// Delete removes name; deleting an unknown name is ErrNotFound.
func Delete(path, name string) error {
	name = strings.TrimSpace(name)
	filters, err := Load[filter.Input](path)
	if err != nil {
		return err
	}
	if _, ok := filters[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(filters, name)
	return Save(path, filters)
}

// Names returns the keys of m in sorted order.
func Names[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

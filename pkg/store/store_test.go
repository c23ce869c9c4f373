package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nethoundsh/localfilter/pkg/filter"
	"gopkg.in/yaml.v3"
)

var reports = filter.Input{
	Pattern:    `^report_\d+\.csv$`,
	StartDate:  "2024-01-01",
	EndDate:    "2024-03-31",
	ShowHidden: true,
	Exclude:    true,
}

func TestLoad(t *testing.T) {
	t.Run("file does not exist returns empty map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nonexistent.json")
		data, err := Load[filter.Input](path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("expected empty map, got %d entries", len(data))
		}
	})

	t.Run("empty file returns empty map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filters.yaml")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		data, err := Load[filter.Input](path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data == nil || len(data) != 0 {
			t.Fatalf("expected empty non-nil map, got %v", data)
		}
	})

	t.Run("valid JSON file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filters.json")
		b, err := json.Marshal(map[string]filter.Input{"reports": reports})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := os.WriteFile(path, b, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		data, err := Load[filter.Input](path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := data["reports"]; got != reports {
			t.Fatalf("got %+v, want %+v", got, reports)
		}
	})

	t.Run("valid YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filters.yml")
		doc := "logs:\n  pattern: '.*\\.log'\n  case_sensitive: true\n  start_date: \"2024-05-01\"\n  show_hidden: false\n  exclude: false\n"
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		data, err := Load[filter.Input](path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filter.Input{Pattern: `.*\.log`, CaseSensitive: true, StartDate: "2024-05-01"}
		if got := data["logs"]; got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("corrupt JSON returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filters.json")
		if err := os.WriteFile(path, []byte(`{garbage`), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load[filter.Input](path); err == nil {
			t.Fatal("expected decode error for corrupt JSON")
		}
	})
}

func TestSave(t *testing.T) {
	t.Run("normal save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "filters.json")
		if err := Save(path, map[string]filter.Input{"reports": reports}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("permissions = %o, want 600", perm)
		}

		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var parsed map[string]filter.Input
		if err := json.Unmarshal(b, &parsed); err != nil {
			t.Fatalf("saved file is not valid JSON: %v", err)
		}
		if _, ok := parsed["reports"]; !ok {
			t.Fatal("saved file missing key 'reports'")
		}
		if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("temp file left behind: %v", err)
		}
	})

	t.Run("yaml extension writes YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filters.yaml")
		if err := Save(path, map[string]filter.Input{"reports": reports}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var parsed map[string]filter.Input
		if err := yaml.Unmarshal(b, &parsed); err != nil {
			t.Fatalf("saved file is not valid YAML: %v", err)
		}
		if parsed["reports"] != reports {
			t.Fatalf("got %+v, want %+v", parsed["reports"], reports)
		}
	})
}

// A filter rebuilt from a saved input behaves like the original.
func TestRoundTripThroughBuild(t *testing.T) {
	for _, name := range []string{"filters.json", "filters.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			f, err := filter.Build(reports, time.UTC)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if err := Put(path, "reports", f.Input()); err != nil {
				t.Fatalf("Put: %v", err)
			}
			in, err := Get(path, "reports")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			g, err := filter.Build(in, time.UTC)
			if err != nil {
				t.Fatalf("Build from saved: %v", err)
			}
			if g.Input() != f.Input() {
				t.Fatalf("round trip mismatch: got %+v want %+v", g.Input(), f.Input())
			}
		})
	}
}

func TestGetPutDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")

	if _, err := Get(path, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
	if err := Put(path, "  ", reports); err == nil {
		t.Fatal("Put with blank name should fail")
	}
	if err := Put(path, "b", reports); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	if err := Put(path, "a", filter.DefaultInput()); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	all, err := Load[filter.Input](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := strings.Join(Names(all), ","); got != "a,b" {
		t.Fatalf("Names = %q, want a,b", got)
	}
	if err := Delete(path, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete(path, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestNamesAreTrimmed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	if err := Put(path, " weekly ", reports); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for _, name := range []string{"weekly", " weekly", "weekly\t"} {
		in, err := Get(path, name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if in != reports {
			t.Fatalf("Get(%q) = %+v, want %+v", name, in, reports)
		}
	}
	if err := Delete(path, "  weekly"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(path, "weekly"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestFilePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	path, err := FilePath()
	if err != nil {
		t.Skipf("no config dir in this environment: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("localfilter", "filters.json")) {
		t.Fatalf("path %q does not end with localfilter/filters.json", path)
	}

	t.Setenv(EnvPath, "/tmp/custom.yaml")
	path, err = FilePath()
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	if path != "/tmp/custom.yaml" {
		t.Fatalf("path = %q, want override", path)
	}
}

// Package listing enumerates directory entries and hands each one to a
// filter.Filter.
package listing

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/nethoundsh/localfilter/pkg/fileinfo"
	"github.com/nethoundsh/localfilter/pkg/filter"
	"go.uber.org/zap"
)

// SkipDirs lists directory names that are never descended into.
var SkipDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true,
	"vendor": true, ".venv": true, ".idea": true, ".vscode": true,
}

type Config struct {
	Recursive   bool
	IncludeDirs bool
	MinSize     int64
	MaxSize     int64
}

// Result is the outcome of listing one directory.
type Result struct {
	Dir      string
	Kept     []*fileinfo.Meta
	Hidden   int
	Filtered int
	Warnings []error
}

// withinSize applies the size bounds to regular files. Size bounds sit
// outside the filter: exclusion mode never inverts them.
func withinSize(meta *fileinfo.Meta, cfg Config) bool {
	if meta.IsDir {
		return true
	}
	if cfg.MinSize > 0 && meta.Size < cfg.MinSize {
		return false
	}
	if cfg.MaxSize > 0 && meta.Size > cfg.MaxSize {
		return false
	}
	return true
}

// ReadDir lists dir (not its subdirectories) and keeps the entries f
// accepts. Entries whose metadata cannot be read are reported as warnings
// and skipped.
func ReadDir(dir string, cfg Config, f *filter.Filter, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{Dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	for _, d := range entries {
		if d.IsDir() && !cfg.IncludeDirs {
			continue
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, d.Name())
		info, err := d.Info()
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("%s: reading file info: %w", path, err))
			continue
		}
		meta := fileinfo.New(path, info)
		if !withinSize(meta, cfg) {
			res.Filtered++
			log.Debug("entry outside size bounds", zap.String("path", path), zap.Int64("size", meta.Size))
			continue
		}
		reason := f.Decide(meta.Entry())
		log.Debug("filter decision",
			zap.String("path", path),
			zap.Time("modified", meta.Modified),
			zap.Bool("hidden", meta.Hidden),
			zap.Stringer("reason", reason),
		)
		switch reason {
		case filter.Accepted:
			res.Kept = append(res.Kept, meta)
		case filter.RejectedHidden:
			res.Hidden++
		default:
			res.Filtered++
		}
	}
	sort.Slice(res.Kept, func(i, j int) bool {
		return res.Kept[i].Name < res.Kept[j].Name
	})
	return res, nil
}

// Dirs returns root plus, when cfg.Recursive is set, every subdirectory
// worth descending into. Hidden directories are only descended into when f
// shows hidden entries. Unreadable subtrees are reported through warn.
func Dirs(root string, cfg Config, f *filter.Filter, warn func(path string, err error)) ([]string, error) {
	if !cfg.Recursive {
		return []string{root}, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if warn != nil {
				warn(path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			if SkipDirs[d.Name()] {
				return fs.SkipDir
			}
			if !f.ShowHidden() {
				if info, infoErr := d.Info(); infoErr == nil && fileinfo.IsHidden(path, info) {
					return fs.SkipDir
				}
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return dirs, nil
}

package fileinfo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nethoundsh/localfilter/pkg/filter"
)

type Meta struct {
	Name        string
	Path        string
	Size        int64
	SizeHuman   string
	Modified    time.Time
	Created     time.Time
	Permissions string
	IsDir       bool
	Hidden      bool
}

type JSONMeta struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	SizeHuman   string `json:"size_human"`
	Modified    string `json:"modified"`
	Created     string `json:"created,omitempty"`
	Permissions string `json:"permissions"`
	Hidden      bool   `json:"hidden"`
}

func New(path string, fi os.FileInfo) *Meta {
	return &Meta{
		Name:        fi.Name(),
		Path:        path,
		Size:        fi.Size(),
		SizeHuman:   humanize.Bytes(uint64(fi.Size())),
		Modified:    fi.ModTime().UTC(),
		Created:     birthTime(path, fi).UTC(),
		Permissions: fi.Mode().String(),
		IsDir:       fi.IsDir(),
		Hidden:      IsHidden(path, fi),
	}
}

// IsHidden treats dot-prefixed names as hidden on every platform, and
// additionally honours the hidden attribute on Windows.
func IsHidden(path string, fi os.FileInfo) bool {
	name := fi.Name()
	if name == "" {
		name = filepath.Base(path)
	}
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	return hasHiddenAttribute(fi)
}

// Entry is the view of m that the filter decides on. Modified is kept in
// UTC; the date filter converts it to its own location.
func (m *Meta) Entry() filter.Entry {
	return filter.Entry{Name: m.Name, ModTime: m.Modified, Hidden: m.Hidden}
}

func ToJSON(meta *Meta) *JSONMeta {
	if meta == nil {
		return nil
	}
	out := &JSONMeta{
		Name:        meta.Name,
		Path:        meta.Path,
		Type:        "file",
		Size:        meta.Size,
		SizeHuman:   meta.SizeHuman,
		Modified:    meta.Modified.Format(time.RFC3339),
		Permissions: meta.Permissions,
		Hidden:      meta.Hidden,
	}
	if meta.IsDir {
		out.Type = "dir"
	}
	if !meta.Created.IsZero() {
		out.Created = meta.Created.Format(time.RFC3339)
	}
	return out
}

// unixTime is the zero Time when the platform reports no timestamp.
func unixTime(sec, nsec int64) time.Time {
	if sec == 0 && nsec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, nsec)
}

package folder

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/pathsafe"
)

// InboxFile describes a file stored in the folder's files directory.
type InboxFile struct {
	DisplayName string `json:"display_name"`
	LocalPath   string `json:"local_path"`
	FileURL     string `json:"file_url"`
	Bytes       int64  `json:"bytes"`
	// Modification time in unix seconds
	MTime int64 `json:"mtime"`
}

// FileURL returns the folder-relative reference of an inbox file.
func FileURL(name string) string {
	return "files/" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// ListInboxFiles returns the regular files directly inside the files
// directory, most recently modified first.
func (e *Engine) ListInboxFiles(ctx context.Context) ([]InboxFile, error) {
	entries, err := os.ReadDir(e.filesDir)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to read files directory", err)
	}

	files := []InboxFile{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, ok := e.describe(entry.Name())
		if !ok {
			continue
		}
		files = append(files, file)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].MTime != files[j].MTime {
			return files[i].MTime > files[j].MTime
		}
		return files[i].DisplayName < files[j].DisplayName
	})
	return files, nil
}

// OpenInboxFile opens a file from the files directory for reading. Only the
// base name of name is used.
func (e *Engine) OpenInboxFile(ctx context.Context, name string) (*os.File, InboxFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, InboxFile{}, err
	}

	name = pathsafe.SanitizeFilename(filepath.Base(name))
	path := pathsafe.JoinSafely(e.filesDir, name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, InboxFile{}, errs.Newf(errs.NotFound, "file '%s' not found", name)
		}
		return nil, InboxFile{}, errs.Wrap(errs.Storage, "failed to stat file", err)
	}
	if !info.Mode().IsRegular() {
		return nil, InboxFile{}, errs.Newf(errs.NotFound, "file '%s' not found", name)
	}
	if !pathsafe.IsContainedWithin(path, e.filesDir) {
		return nil, InboxFile{}, errs.Newf(errs.Safety, "file '%s' resolves outside the files directory", name)
	}

	file, ok := e.describe(name)
	if !ok {
		return nil, InboxFile{}, errs.Newf(errs.NotFound, "file '%s' not found", name)
	}

	f, err := os.Open(file.LocalPath)
	if err != nil {
		return nil, InboxFile{}, errs.Wrap(errs.Storage, "failed to open file", err)
	}
	return f, file, nil
}

// describe stats a single entry of the files directory, following symlinks.
// Entries that vanished, are not regular files or resolve outside the files
// directory are reported as not ok.
func (e *Engine) describe(name string) (InboxFile, bool) {
	path := pathsafe.JoinSafely(e.filesDir, name)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return InboxFile{}, false
	}

	resolved, err := pathsafe.Canonical(path)
	if err != nil || !pathsafe.IsContainedWithin(resolved, e.filesDir) {
		return InboxFile{}, false
	}

	return InboxFile{
		DisplayName: name,
		LocalPath:   resolved,
		FileURL:     FileURL(name),
		Bytes:       info.Size(),
		MTime:       info.ModTime().Unix(),
	}, true
}

package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/pathsafe"
)

// maxNameAttempts bounds the numeric suffix search for a free file name.
const maxNameAttempts = 10000

// IncomingFile is an uploaded payload already spooled to TempPath.
type IncomingFile struct {
	Name     string
	TempPath string
	Size     int64
	Err      error
}

// CreateTemp creates a spool file inside the folder's metadata directory, so
// that saving it later is a rename on the same device.
func (e *Engine) CreateTemp() (*os.File, error) {
	f, err := os.CreateTemp(e.appDir, "upload-*.tmp")
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to create upload spool file", err)
	}
	return f, nil
}

// SaveUploads moves each incoming file into the files directory and returns
// the stored files. Files that failed to upload, exceed the size limit or
// cannot be moved are logged and skipped.
func (e *Engine) SaveUploads(ctx context.Context, files []IncomingFile) ([]InboxFile, error) {
	saved := []InboxFile{}

	for _, in := range files {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		if in.Err != nil {
			e.log.Warn("Skipping upload '%s': %v", in.Name, in.Err)
			continue
		}
		if in.Size > e.cfg.MaxUploadBytes {
			e.log.Warn("Skipping upload '%s': %d bytes exceeds limit of %d", in.Name, in.Size, e.cfg.MaxUploadBytes)
			continue
		}

		file, err := e.saveUpload(in)
		if err != nil {
			e.log.Error("Failed to save upload '%s': %v", in.Name, err)
			continue
		}

		e.log.Info("Saved upload '%s' as '%s' (%d bytes)", in.Name, file.DisplayName, file.Bytes)
		saved = append(saved, file)
	}

	return saved, nil
}

func (e *Engine) saveUpload(in IncomingFile) (InboxFile, error) {
	name, target, err := e.reserve(pathsafe.SanitizeFilename(in.Name))
	if err != nil {
		return InboxFile{}, err
	}

	if !pathsafe.IsContainedWithin(target, e.filesDir) {
		os.Remove(target)
		return InboxFile{}, errs.Newf(errs.Safety, "target '%s' escapes the files directory", target)
	}

	if err := moveFile(in.TempPath, target); err != nil {
		os.Remove(target)
		return InboxFile{}, errs.Wrap(errs.Storage, "failed to move upload", err)
	}
	if err := os.Chmod(target, 0644); err != nil {
		e.log.Warn("Failed to set permissions on '%s': %v", target, err)
	}

	file, ok := e.describe(name)
	if !ok {
		return InboxFile{}, errs.Newf(errs.Storage, "saved file '%s' is not readable", name)
	}
	return file, nil
}

// reserve claims a free name in the files directory by exclusively creating
// an empty placeholder. Taken names are retried as base-1.ext, base-2.ext, ...
func (e *Engine) reserve(name string) (string, string, error) {
	base, ext := pathsafe.SplitExt(name)
	candidate := name

	for k := 1; k <= maxNameAttempts; k++ {
		target := pathsafe.JoinSafely(e.filesDir, candidate)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return candidate, target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", errs.Wrap(errs.Storage, "failed to reserve file name", err)
		}

		candidate = fmt.Sprintf("%s-%d%s", base, k, ext)
	}

	return "", "", errs.Newf(errs.Storage, "no free file name for '%s'", name)
}

// moveFile renames src onto dst, copying across devices when renaming fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

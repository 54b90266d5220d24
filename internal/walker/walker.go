// Package walker applies a Scaler to every allow-listed file under a root directory.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"tcprice/internal/scaler"
	tcerrors "tcprice/pkg/errors"
)

// DefaultExtensions lists the file suffixes scanned when none are configured.
var DefaultExtensions = []string{".yml", ".yaml"}

// FileScaler rewrites a single file.
type FileScaler interface {
	ScaleFile(path string) (scaler.Result, error)
}

// Failure records a path that was skipped and why.
type Failure struct {
	Path string `json:"path"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

// Summary aggregates one walk.
type Summary struct {
	Scanned      int       `json:"scanned"`
	Updated      int       `json:"updated"`
	Replacements int       `json:"replacements"`
	UpdatedPaths []string  `json:"updated_paths"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Walker visits a directory tree and scales matching files one at a time.
type Walker struct {
	Scaler     FileScaler
	Extensions []string
	Logger     zerolog.Logger

	// OnUpdate is called after each file that was rewritten.
	OnUpdate func(scaler.Result)
}

// New creates a Walker using DefaultExtensions and a no-op logger.
func New(s FileScaler) *Walker {
	return &Walker{
		Scaler:     s,
		Extensions: DefaultExtensions,
		Logger:     zerolog.Nop(),
	}
}

// Allowed reports whether path carries one of the walker's extensions.
// The comparison is exact, so ".YML" is not scanned.
func (w *Walker) Allowed(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return tcerrors.NewRootError(tcerrors.ErrCodeRootNotFound, root, err)
	}
	if !info.IsDir() {
		return tcerrors.NewRootError(tcerrors.ErrCodeRootNotDir, root, nil)
	}
	return nil
}

// resolveRoot follows root when it is itself a symlink; WalkDir does not.
func resolveRoot(root string) (string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return "", tcerrors.NewRootError(tcerrors.ErrCodeRootNotFound, root, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return root, nil
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", tcerrors.NewRootError(tcerrors.ErrCodeRootNotFound, root, err)
	}
	return resolved, nil
}

// Walk scales every allowed regular file under root. An unusable root, a
// cancelled context or a non-recoverable scaler error returns an error;
// recoverable per-file failures land in the Summary.
//
// A symlinked root is followed, and reported paths stay under root as given.
func (w *Walker) Walk(ctx context.Context, root string) (*Summary, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}
	walkRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	sum := &Summary{UpdatedPaths: []string{}}
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkRoot != root {
			if rel, relErr := filepath.Rel(walkRoot, path); relErr == nil {
				path = filepath.Join(root, rel)
			}
		}
		if err != nil {
			// The root itself was checked above; anything here is a subtree we cannot read.
			w.fail(sum, tcerrors.NewFileError(tcerrors.ErrCodeWalkFailed, path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !w.Allowed(path) {
			return nil
		}

		sum.Scanned++
		res, err := w.Scaler.ScaleFile(path)
		if err != nil {
			w.fail(sum, err)
			var se *tcerrors.ScaleError
			if errors.As(err, &se) && !se.Recoverable() {
				return err
			}
			return nil
		}
		w.Logger.Debug().Str("path", path).Int("matches", res.Matches).Msg("Scanned file")
		if !res.Updated {
			return nil
		}

		sum.Updated++
		sum.Replacements += res.Matches
		sum.UpdatedPaths = append(sum.UpdatedPaths, path)
		if w.OnUpdate != nil {
			w.OnUpdate(res)
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	w.Logger.Info().
		Int("scanned", sum.Scanned).
		Int("updated", sum.Updated).
		Int("replacements", sum.Replacements).
		Int("failed", len(sum.Failures)).
		Msg("Walk complete")
	return sum, nil
}

func (w *Walker) fail(sum *Summary, err error) {
	f := Failure{Code: tcerrors.CodeOf(err), Err: err}
	var se *tcerrors.ScaleError
	if errors.As(err, &se) {
		f.Path = se.Path
	}
	sum.Failures = append(sum.Failures, f)
	w.Logger.Error().Err(err).Str("path", f.Path).Str("code", f.Code).Msg("Skipping file")
}

package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"lectern/internal/fileutil"
	"lectern/internal/media"
	"lectern/internal/services"
)

// Lister produces the ordered set of candidate recordings for a run.
// The order is stable: the batch controller processes candidates exactly as
// listed and the ledger reflects the same order.
type Lister interface {
	List(ctx context.Context) ([]media.CandidateFile, error)
}

// Fetcher copies one candidate's bytes to a local destination path.
type Fetcher interface {
	Fetch(ctx context.Context, candidate media.CandidateFile, dest string) error
}

// LocalLister walks a directory tree for recordings matching the accepted
// extensions.
type LocalLister struct {
	Dir        string
	Extensions []string
}

// List enumerates matching files under Dir, sorted by path. A missing or
// unreadable directory is a fatal source error: there is nothing to process.
func (l LocalLister) List(ctx context.Context) ([]media.CandidateFile, error) {
	info, err := os.Stat(l.Dir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrSourceUnavailable, "list", "local", "input directory does not exist: "+l.Dir, err)
	}

	accepted := media.NormalizeExtensions(l.Extensions)
	var candidates []media.CandidateFile
	walkErr := filepath.WalkDir(l.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		candidate := media.CandidateFile{Path: path}
		if !candidate.MatchesExtension(accepted) {
			return nil
		}
		fileInfo, err := entry.Info()
		if err != nil {
			return err
		}
		candidate.Size = fileInfo.Size()
		candidate.ModTime = fileInfo.ModTime()
		candidates = append(candidates, candidate)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, services.Wrap(services.ErrSourceUnavailable, "list", "local", "walk input directory", walkErr)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}

// LocalFetcher copies a local candidate into scratch with integrity
// verification.
type LocalFetcher struct{}

func (LocalFetcher) Fetch(ctx context.Context, candidate media.CandidateFile, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.CopyFileVerified(candidate.Path, dest)
}

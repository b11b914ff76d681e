package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"sort"
	"strings"
	"time"

	"lectern/internal/media"
	"lectern/internal/services"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// RcloneOption configures the rclone client.
type RcloneOption func(*Rclone)

// WithBinary overrides the default binary name.
func WithBinary(binary string) RcloneOption {
	return func(r *Rclone) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithRunner sets a custom command runner (for testing).
func WithRunner(runner Runner) RcloneOption {
	return func(r *Rclone) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// Rclone wraps the rclone command-line transfer tool. It supports listing a
// remote path and copying one file at a time to a local destination.
type Rclone struct {
	binary string
	runner Runner
}

// NewRclone constructs an rclone client using defaults.
func NewRclone(opts ...RcloneOption) *Rclone {
	client := &Rclone{binary: "rclone", runner: defaultRunner}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type lsjsonEntry struct {
	Path    string    `json:"Path"`
	Size    int64     `json:"Size"`
	ModTime time.Time `json:"ModTime"`
	IsDir   bool      `json:"IsDir"`
}

// List enumerates files under remote:remotePath recursively. Returned
// candidate paths are relative to remotePath.
func (r *Rclone) List(ctx context.Context, remote, remotePath string) ([]media.CandidateFile, error) {
	target := fmt.Sprintf("%s:%s", remote, remotePath)
	output, err := r.runner(ctx, r.binary, "lsjson", "--recursive", "--files-only", target)
	if err != nil {
		return nil, err
	}

	var entries []lsjsonEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, fmt.Errorf("parse rclone listing: %w", err)
	}

	candidates := make([]media.CandidateFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || entry.Path == "" {
			continue
		}
		candidates = append(candidates, media.CandidateFile{
			Path:    entry.Path,
			Size:    entry.Size,
			ModTime: entry.ModTime,
		})
	}
	return candidates, nil
}

// CopyTo copies one remote file to the given local path.
func (r *Rclone) CopyTo(ctx context.Context, remote, remoteFilePath, localPath string) error {
	target := fmt.Sprintf("%s:%s", remote, remoteFilePath)
	_, err := r.runner(ctx, r.binary, "copyto", target, localPath)
	return err
}

// RemoteLister enumerates candidates from an rclone remote, filtered by the
// accepted extensions.
type RemoteLister struct {
	Client     *Rclone
	Remote     string
	Path       string
	Extensions []string
}

// List queries the remote. Authentication or connectivity failures are fatal
// source errors.
func (l RemoteLister) List(ctx context.Context) ([]media.CandidateFile, error) {
	listed, err := l.Client.List(ctx, l.Remote, l.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "list", "rclone", fmt.Sprintf("list %s:%s", l.Remote, l.Path), err)
	}

	accepted := media.NormalizeExtensions(l.Extensions)
	candidates := listed[:0]
	for _, candidate := range listed {
		if candidate.MatchesExtension(accepted) {
			candidates = append(candidates, candidate)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}

// RemoteFetcher copies one remote candidate into scratch via rclone.
type RemoteFetcher struct {
	Client *Rclone
	Remote string
	Path   string
}

func (f RemoteFetcher) Fetch(ctx context.Context, candidate media.CandidateFile, dest string) error {
	remoteFile := path.Join(f.Path, candidate.Path)
	return f.Client.CopyTo(ctx, f.Remote, remoteFile, dest)
}

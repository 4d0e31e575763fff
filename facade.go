// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/duskvale/mrsarchive/internal/config"
	"github.com/duskvale/mrsarchive/internal/logging"
)

var (
	runtimeConfigOnce sync.Once
	runtimeConfig     *config.RuntimeConfig

	loggingOnce sync.Once
)

// loadRuntimeConfig loads the engine's environment-driven runtime config
// exactly once per process, falling back to config defaults on error.
func loadRuntimeConfig() *config.RuntimeConfig {
	runtimeConfigOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			slog.Warn("mrs: failed to load runtime config, using defaults", "error", err)
			cfg = &config.RuntimeConfig{Workers: defaultExtractWorkers}
		}
		runtimeConfig = cfg
	})
	return runtimeConfig
}

// ensureLogging configures the package-wide slog default handler from
// RuntimeConfig on first use by Open or OpenForced, the way
// ossyrian-mintyparse wires its logging setup at process entry.
func ensureLogging() {
	loggingOnce.Do(func() {
		cfg := loadRuntimeConfig()
		if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
			slog.Warn("mrs: failed to configure logging, using default handler", "error", err)
		}
	})
}

// Archive is the single-owner handle over an open MRS archive: the file
// handle, the detected variant, the populated path trie, and the path the
// archive was opened from. Construct one with Open or OpenForced.
type Archive struct {
	file    *os.File
	path    string
	variant Variant
	trie    *PathTrie
}

// Open opens path read-only, detects its variant, and populates the trie
// from its central directory (Mrs1/Mrs2) or a synthesized local-header walk
// (Mrs3/MG2). The trie is fully populated before Open returns.
func Open(path string) (*Archive, error) {
	ensureLogging()
	return open(path)
}

// OpenForced opens path via the recovery scanner instead of normal directory
// parsing: useful when Open fails because the archive's central directory or
// end record is missing or corrupt. The resulting Archive's Variant is
// ForcedRecovery.
func OpenForced(path string) (*Archive, error) {
	ensureLogging()
	return openForced(path)
}

// Variant returns the archive's detected or forced variant.
func (a *Archive) Variant() Variant { return a.variant }

// Path returns the filesystem path the archive was opened from.
func (a *Archive) Path() string { return a.path }

// Root returns the root node of the archive's path trie.
func (a *Archive) Root() *TrieNode { return a.trie.Root() }

// Close releases the archive's file handle. The trie remains valid in
// memory after Close.
func (a *Archive) Close() error {
	return a.file.Close()
}

// GetFile returns the decompressed, CRC-verified bytes of the entry at
// archivePath. Returns ErrNotFound if no such file entry exists.
func (a *Archive) GetFile(archivePath string) ([]byte, error) {
	return a.get(archivePath)
}

// ExtractFile writes the decompressed bytes of archivePath to destination.
// If destination is an existing directory, the entry's base name is
// appended. If destination already exists, ExtractFile is a no-op that
// returns success (idempotent "already done"). Missing parent directories
// are created.
func (a *Archive) ExtractFile(archivePath, destination string) error {
	dest, err := resolveExtractDest(archivePath, destination)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	data, err := a.get(archivePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mrs: create destination directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("mrs: write %s: %w", dest, err)
	}
	return nil
}

// resolveExtractDest appends archivePath's base name to destination if
// destination names an existing directory.
func resolveExtractDest(archivePath, destination string) (string, error) {
	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		destination = filepath.Join(destination, filepath.Base(archivePath))
	}
	return destination, nil
}

// safeJoin joins root with rel (a '/'-separated archive-relative path) and
// rejects the result with ErrPathTraversal if it would escape root — a
// defense against a maliciously crafted entry name containing "..".
func safeJoin(root, rel string) (string, error) {
	joined := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return joined, nil
}

// defaultExtractWorkers bounds how many extraction goroutines run
// concurrently when config fails to load or yields a worker count below 1;
// it mirrors the batch worker-pool's
// semaphore-bounded fan-out and RuntimeConfig's own GOMAXPROCS-based default.
var defaultExtractWorkers = runtime.GOMAXPROCS(0)

// ExtractFiles extracts each of files (archive-relative paths) into
// destinationDir, each worker opening its own read-only file handle per §5's
// concurrency requirement rather than sharing a.file.
func (a *Archive) ExtractFiles(ctx context.Context, files []string, destinationDir string) error {
	return a.extractConcurrently(ctx, files, func(archivePath string, worker *Archive) error {
		dest, err := safeJoin(destinationDir, filepath.Base(archivePath))
		if err != nil {
			return err
		}
		if err := worker.ExtractFile(archivePath, dest); err != nil {
			slog.Warn("mrs: skipping entry in batch extraction", "path", archivePath, "error", err)
		}
		return nil
	})
}

// ExtractDirectory traverses the subtree at archiveDir and extracts every
// file node to destinationRoot/relativePath, creating directory nodes as
// plain directories. File extractions may proceed concurrently.
func (a *Archive) ExtractDirectory(ctx context.Context, archiveDir, destinationRoot string) error {
	if err := os.MkdirAll(destinationRoot, 0o755); err != nil {
		return fmt.Errorf("mrs: create destination root: %w", err)
	}

	prefix := strings.Join(splitPath(archiveDir), "/")
	var files []string
	var walkErr error
	a.trie.Traverse(archiveDir, func(fullPath string, node *TrieNode) {
		if walkErr != nil {
			return
		}
		rel := strings.TrimPrefix(fullPath, prefix)
		dest, err := safeJoin(destinationRoot, rel)
		if err != nil {
			walkErr = err
			return
		}
		if node.IsFile() {
			files = append(files, fullPath)
		} else {
			os.MkdirAll(dest, 0o755)
		}
	})
	if walkErr != nil {
		return walkErr
	}

	return a.extractConcurrently(ctx, files, func(archivePath string, worker *Archive) error {
		rel := strings.TrimPrefix(archivePath, prefix)
		dest, err := safeJoin(destinationRoot, rel)
		if err != nil {
			return err
		}
		if err := worker.ExtractFile(archivePath, dest); err != nil {
			slog.Warn("mrs: skipping entry in batch extraction", "path", archivePath, "error", err)
		}
		return nil
	})
}

// ExtractArchive extracts the entire archive to a sibling directory named
// after the archive's file stem.
func (a *Archive) ExtractArchive(ctx context.Context) error {
	stem := strings.TrimSuffix(filepath.Base(a.path), filepath.Ext(a.path))
	dest := filepath.Join(filepath.Dir(a.path), stem)
	return a.ExtractDirectory(ctx, "", dest)
}

// extractConcurrently fans work out across at most RuntimeConfig.Workers
// goroutines (defaultExtractWorkers if that is below 1), each operating on a short-lived *Archive that shares the parent's trie but
// owns its own file handle, per §5's requirement that concurrent extraction
// not share a single seekable handle.
func (a *Archive) extractConcurrently(ctx context.Context, archivePaths []string, do func(archivePath string, worker *Archive) error) error {
	if len(archivePaths) == 0 {
		return nil
	}

	workers := loadRuntimeConfig().Workers
	if workers < 1 {
		workers = defaultExtractWorkers
	}

	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	for _, p := range archivePaths {
		archivePath := p
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		eg.Go(func() error {
			defer sem.Release(1)

			f, err := os.Open(a.path)
			if err != nil {
				return fmt.Errorf("mrs: open worker handle: %w", err)
			}
			worker := &Archive{file: f, path: a.path, variant: a.variant, trie: a.trie}
			defer worker.Close()

			return do(archivePath, worker)
		})
	}

	return eg.Wait()
}

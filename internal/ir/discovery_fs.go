package ir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileSystemDiscovery implements Discovery for .graphql documents on disk.
// Each root may be a single file or a directory walked recursively.
type FileSystemDiscovery struct {
	filePaths map[SourceID]string
	metas     map[SourceID]*SourceMetadata
}

// NewFileSystemDiscovery creates a new FileSystemDiscovery for the given roots
func NewFileSystemDiscovery(ctx context.Context, roots ...string) (*FileSystemDiscovery, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no document paths given")
	}
	discovery := &FileSystemDiscovery{
		filePaths: make(map[SourceID]string),
		metas:     make(map[SourceID]*SourceMetadata),
	}
	for _, root := range roots {
		if err := discovery.walk(root); err != nil {
			return nil, err
		}
	}
	return discovery, nil
}

func (d *FileSystemDiscovery) walk(rootDir string) error {
	info, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", rootDir, err)
	}
	if !info.IsDir() {
		d.add(rootDir, filepath.Base(rootDir))
		return nil
	}
	err = filepath.WalkDir(rootDir, func(path string, e os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		if filepath.Ext(e.Name()) != ".graphql" {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}
		d.add(path, relPath)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk root directory %q: %w", rootDir, err)
	}
	return nil
}

func (d *FileSystemDiscovery) add(path, relPath string) {
	id := SourceID(filepath.ToSlash(path))
	d.filePaths[id] = path
	d.metas[id] = &SourceMetadata{ID: id, FilePath: relPath}
}

// ListMetadata returns the discovered sources ordered by ID
func (d *FileSystemDiscovery) ListMetadata(ctx context.Context) ([]*SourceMetadata, error) {
	srcs := make([]*SourceMetadata, 0, len(d.metas))
	for _, m := range d.metas {
		srcs = append(srcs, m)
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].ID < srcs[j].ID })
	return srcs, nil
}

// ReadSource reads the GraphQL content for a given source
func (d *FileSystemDiscovery) ReadSource(ctx context.Context, id SourceID) (string, error) {
	fp, ok := d.filePaths[id]
	if !ok {
		return "", fmt.Errorf("source %q not found", id)
	}
	content, err := os.ReadFile(fp)
	if err != nil {
		return "", fmt.Errorf("failed to read source %q: %w", id, err)
	}
	return string(content), nil
}

// Exclude drops discovered sources that resolve to one of paths. Schema
// files living next to documents are excluded this way.
func (d *FileSystemDiscovery) Exclude(paths ...string) error {
	skip := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", p, err)
		}
		skip[abs] = true
	}
	for id, fp := range d.filePaths {
		abs, err := filepath.Abs(fp)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", fp, err)
		}
		if skip[abs] {
			delete(d.filePaths, id)
			delete(d.metas, id)
		}
	}
	return nil
}

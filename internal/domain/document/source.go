package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrUnsupportedKind = errors.New("unsupported corpus kind")

// Source lists and reads the documents of a corpus.
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
	Fetch(ctx context.Context, path string) (string, error)
}

// SourceFactory opens the source backing a corpus.
type SourceFactory func(corpus *Corpus) (Source, error)

// NewSource opens the source for a corpus kind.
func NewSource(corpus *Corpus) (Source, error) {
	switch corpus.Kind {
	case KindDirectory:
		return NewDirectorySource(corpus.Root), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, corpus.Kind)
	}
}

var documentExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

// DirectorySource reads markdown and text files below a root directory.
// Entry paths are slash separated and relative to the root.
type DirectorySource struct {
	root string
}

func NewDirectorySource(root string) *DirectorySource {
	return &DirectorySource{root: root}
}

func (s *DirectorySource) Entries(ctx context.Context) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := documentExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), ModifiedAt: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (s *DirectorySource) Fetch(ctx context.Context, path string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes corpus root", path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

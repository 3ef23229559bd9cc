// Package types defines every cross-package data structure used by the snapshot CLI.
package types

// Tree connectors and indentation prefixes used to render the directory listing.
const (
	ConnectorMiddle    = "├── "
	ConnectorLast      = "└── "
	PrefixContinuation = "│   "
	PrefixBlank        = "    "
)

// TreeLines holds the rendered directory tree in depth-first, sorted order.
type TreeLines []string

// CollectedFile is one file whose content is embedded in the artifact.
type CollectedFile struct {
	RelativePath string
	Content      string
}

// CollectedFiles maps relative paths to content while preserving discovery order.
type CollectedFiles struct {
	entries []CollectedFile
	index   map[string]int
}

// NewCollectedFiles returns an empty ordered collection.
func NewCollectedFiles() *CollectedFiles {
	return &CollectedFiles{index: make(map[string]int)}
}

// Add records content for relativePath. A repeated path replaces the stored content
// and keeps its original position.
func (files *CollectedFiles) Add(relativePath string, content string) {
	if files.index == nil {
		files.index = make(map[string]int)
	}
	if position, exists := files.index[relativePath]; exists {
		files.entries[position].Content = content
		return
	}
	files.index[relativePath] = len(files.entries)
	files.entries = append(files.entries, CollectedFile{RelativePath: relativePath, Content: content})
}

// Get returns the content stored for relativePath.
func (files *CollectedFiles) Get(relativePath string) (string, bool) {
	if files == nil {
		return "", false
	}
	position, exists := files.index[relativePath]
	if !exists {
		return "", false
	}
	return files.entries[position].Content, true
}

// Entries returns the collected files in discovery order.
func (files *CollectedFiles) Entries() []CollectedFile {
	if files == nil {
		return nil
	}
	return files.entries
}

// Len reports the number of collected files.
func (files *CollectedFiles) Len() int {
	if files == nil {
		return 0
	}
	return len(files.entries)
}

// FileReadResult is the outcome of reading one collected file.
// Exactly one of Content or Failure is meaningful.
type FileReadResult struct {
	Content string
	Failure error
}

// Succeeded reports whether the read produced content.
func (result FileReadResult) Succeeded() bool {
	return result.Failure == nil
}

// SnapshotResult summarizes a completed run.
type SnapshotResult struct {
	ArtifactPath       string
	Artifact           string
	TreeLineCount      int
	CollectedFileCount int
	SizeBytes          int64
}

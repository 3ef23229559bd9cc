package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/snapshot/internal/config"
	"github.com/temirov/snapshot/internal/types"
	"github.com/temirov/snapshot/internal/utils"
)

const (
	// errorReadDirectoryFormat is used when a directory cannot be listed.
	errorReadDirectoryFormat = "reading directory %s: %w"
	// warningSkipSubdirMessage is logged when a subdirectory cannot be listed.
	warningSkipSubdirMessage = "skipping unreadable subdirectory"
	// debugExcludedMessage is logged for every entry removed from the tree.
	debugExcludedMessage = "excluded entry"
	// warningReadFileMessage is logged when a collected file is replaced by a placeholder.
	warningReadFileMessage = "could not read file, recording placeholder"
)

// Walker renders the directory tree below a fixed root and collects included files.
// A Walker is used for a single traversal.
type Walker struct {
	root          string
	rules         *config.ExclusionRules
	excludedPaths map[string]struct{}
	logger        *zap.Logger

	treeLines      types.TreeLines
	collectedFiles *types.CollectedFiles
}

// NewWalker creates a Walker for root. excludedPaths are root-relative, forward-slash
// paths that never appear in the output regardless of the rules. Entries elsewhere
// sharing their base name are kept.
func NewWalker(root string, rules *config.ExclusionRules, excludedPaths []string, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	excluded := make(map[string]struct{}, len(excludedPaths))
	for _, excludedPath := range excludedPaths {
		excluded[filepath.ToSlash(excludedPath)] = struct{}{}
	}
	return &Walker{
		root:           filepath.Clean(root),
		rules:          rules,
		excludedPaths:  excluded,
		logger:         logger,
		collectedFiles: types.NewCollectedFiles(),
	}
}

// Traverse walks root depth-first and returns the tree lines and collected files.
// Only a failure to list the root itself is returned as an error.
func Traverse(ctx context.Context, root string, rules *config.ExclusionRules, excludedPaths []string, logger *zap.Logger) (types.TreeLines, *types.CollectedFiles, error) {
	walker := NewWalker(root, rules, excludedPaths, logger)
	if walkError := walker.Walk(ctx); walkError != nil {
		return nil, nil, walkError
	}
	return walker.TreeLines(), walker.CollectedFiles(), nil
}

// Walk performs the traversal.
func (walker *Walker) Walk(ctx context.Context) error {
	return walker.walkDirectory(ctx, walker.root, "")
}

// TreeLines returns the rendered tree lines.
func (walker *Walker) TreeLines() types.TreeLines {
	return walker.treeLines
}

// CollectedFiles returns the collected file contents in discovery order.
func (walker *Walker) CollectedFiles() *types.CollectedFiles {
	return walker.collectedFiles
}

type walkEntry struct {
	name         string
	path         string
	relativePath string
	isDirectory  bool
}

func (walker *Walker) walkDirectory(ctx context.Context, directoryPath string, prefix string) error {
	if contextError := ctx.Err(); contextError != nil {
		return contextError
	}

	entries, listError := walker.listEntries(directoryPath)
	if listError != nil {
		return listError
	}

	for entryIndex, entry := range entries {
		isLast := entryIndex == len(entries)-1
		connector := types.ConnectorMiddle
		childPrefix := prefix + types.PrefixContinuation
		if isLast {
			connector = types.ConnectorLast
			childPrefix = prefix + types.PrefixBlank
		}
		walker.treeLines = append(walker.treeLines, prefix+connector+entry.name)

		if entry.isDirectory {
			subdirectoryError := walker.walkDirectory(ctx, entry.path, childPrefix)
			if subdirectoryError == nil {
				continue
			}
			if ctx.Err() != nil {
				return subdirectoryError
			}
			walker.logger.Warn(warningSkipSubdirMessage,
				zap.String("path", entry.relativePath),
				zap.Error(subdirectoryError))
			continue
		}

		if !IsContentIncluded(entry.name) {
			continue
		}
		readResult := ReadText(entry.path)
		if !readResult.Succeeded() {
			walker.logger.Warn(warningReadFileMessage,
				zap.String("path", entry.relativePath),
				zap.Error(readResult.Failure))
		}
		walker.collectedFiles.Add(entry.relativePath, RenderReadResult(readResult))
	}
	return nil
}

// listEntries reads directoryPath, sorts entries by name and removes excluded ones.
func (walker *Walker) listEntries(directoryPath string) ([]walkEntry, error) {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, fmt.Errorf(errorReadDirectoryFormat, directoryPath, readDirectoryError)
	}
	sort.Slice(directoryEntries, func(left, right int) bool {
		return directoryEntries[left].Name() < directoryEntries[right].Name()
	})

	entries := make([]walkEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		entryPath := filepath.Join(directoryPath, entryName)
		relativePath := utils.RelativePathOrSelf(entryPath, walker.root)
		isDirectory := isDirectoryPath(entryPath, directoryEntry)

		if exclusionReason := walker.exclusionReason(entryName, relativePath, isDirectory); exclusionReason != "" {
			walker.logger.Debug(debugExcludedMessage,
				zap.String("path", relativePath),
				zap.String("reason", exclusionReason))
			continue
		}

		entries = append(entries, walkEntry{
			name:         entryName,
			path:         entryPath,
			relativePath: relativePath,
			isDirectory:  isDirectory,
		})
	}
	return entries, nil
}

func (walker *Walker) exclusionReason(entryName string, relativePath string, isDirectory bool) string {
	if walker.rules.Matches(relativePath, isDirectory) {
		return "ignore rule"
	}
	if entryName == utils.GitDirectoryName {
		return "version control metadata"
	}
	if _, excluded := walker.excludedPaths[relativePath]; excluded {
		return "tool artifact"
	}
	return ""
}

// isDirectoryPath follows symbolic links the way os.Stat does. Entries that cannot be
// stat'ed, such as dangling links, are treated as files.
func isDirectoryPath(entryPath string, directoryEntry os.DirEntry) bool {
	if directoryEntry.Type()&os.ModeSymlink == 0 {
		return directoryEntry.IsDir()
	}
	fileInformation, statError := os.Stat(entryPath)
	if statError != nil {
		return false
	}
	return fileInformation.IsDir()
}

package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/snapshot/internal/config"
	"github.com/temirov/snapshot/internal/output"
	"github.com/temirov/snapshot/internal/types"
	"github.com/temirov/snapshot/internal/utils"
)

const (
	// errorResolveRootFormat is used when the root cannot be made absolute.
	errorResolveRootFormat = "resolve root %s: %w"
	// errorTraverseFormat is used when the root directory cannot be walked.
	errorTraverseFormat = "traverse %s: %w"
)

// Options configures one snapshot run.
type Options struct {
	// Root is the directory to snapshot.
	Root string
	// OutputFileName is the artifact name inside Root.
	OutputFileName string
	// ExtraExclusions are appended to the patterns of the root .gitignore.
	ExtraExclusions []string
	// ExecutablePath is the running binary; it is hidden when it lives inside Root.
	ExecutablePath string
	Logger         *zap.Logger
}

// Run loads the exclusion rules, walks the root, and writes the artifact.
// Rule loading happens before any traversal so an unreadable rules file aborts the run early.
func Run(ctx context.Context, options Options) (types.SnapshotResult, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return types.SnapshotResult{}, fmt.Errorf(errorResolveRootFormat, options.Root, absoluteError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	outputFileName := options.OutputFileName
	if outputFileName == "" {
		outputFileName = utils.DefaultOutputFileName
	}

	rules, rulesError := config.LoadExclusionRules(filepath.Join(absoluteRoot, utils.GitIgnoreFileName), options.ExtraExclusions)
	if rulesError != nil {
		return types.SnapshotResult{}, rulesError
	}
	logger.Debug("loaded exclusion rules", zap.Int("patterns", rules.Len()))

	excludedPaths := ToolArtifactPaths(absoluteRoot, outputFileName, options.ExecutablePath)
	treeLines, collectedFiles, traverseError := Traverse(ctx, absoluteRoot, rules, excludedPaths, logger)
	if traverseError != nil {
		return types.SnapshotResult{}, fmt.Errorf(errorTraverseFormat, absoluteRoot, traverseError)
	}

	artifact := output.Render(treeLines, collectedFiles)
	artifactPath := filepath.Join(absoluteRoot, outputFileName)
	if writeError := output.WriteArtifact(artifactPath, artifact); writeError != nil {
		return types.SnapshotResult{}, writeError
	}

	return types.SnapshotResult{
		ArtifactPath:       artifactPath,
		Artifact:           artifact,
		TreeLineCount:      len(treeLines),
		CollectedFileCount: collectedFiles.Len(),
		SizeBytes:          int64(len(artifact)),
	}, nil
}

// ToolArtifactPaths lists the root-relative paths produced or used by the tool itself:
// the artifact and, when it lives inside root, the running executable.
// The paths are matched exactly, not by name at every depth, so a nested
// internal/snapshot directory survives a snapshot binary built into the root.
func ToolArtifactPaths(root string, outputFileName string, executablePath string) []string {
	artifactPaths := []string{filepath.ToSlash(outputFileName)}
	if executablePath == "" {
		return artifactPaths
	}
	resolvedExecutable, evalError := filepath.EvalSymlinks(executablePath)
	if evalError != nil {
		resolvedExecutable = executablePath
	}
	resolvedRoot, rootEvalError := filepath.EvalSymlinks(root)
	if rootEvalError != nil {
		resolvedRoot = root
	}
	if !utils.IsWithinRoot(resolvedExecutable, resolvedRoot) {
		return artifactPaths
	}
	executableRelativePath := utils.RelativePathOrSelf(resolvedExecutable, resolvedRoot)
	return utils.DeduplicatePatterns(append(artifactPaths, executableRelativePath))
}

// CurrentExecutable returns the path of the running binary or an empty string.
func CurrentExecutable() string {
	executablePath, executableError := os.Executable()
	if executableError != nil {
		return ""
	}
	return executablePath
}

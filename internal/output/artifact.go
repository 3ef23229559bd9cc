// Package output renders the snapshot artifact and writes it to disk.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/temirov/snapshot/internal/types"
)

const (
	structureHeader      = "Project File Structure:"
	contentsHeader       = "File Contents:"
	sectionSeparator     = "\n\n"
	startDelimiterFormat = "===== Start of %s ====="
	endDelimiterFormat   = "===== End of %s ====="

	artifactFileMode = 0o644

	// errorWriteArtifactFormat reports a failure to persist the artifact.
	errorWriteArtifactFormat = "write artifact %s: %w"
)

// Render produces the artifact text: the tree section followed by one delimited block
// per collected file, in discovery order.
func Render(treeLines types.TreeLines, collectedFiles *types.CollectedFiles) string {
	var builder strings.Builder

	builder.WriteString(structureHeader)
	builder.WriteString("\n")
	for _, treeLine := range treeLines {
		builder.WriteString(treeLine)
		builder.WriteString("\n")
	}

	builder.WriteString(sectionSeparator)
	builder.WriteString(contentsHeader)
	builder.WriteString("\n")
	for _, collectedFile := range collectedFiles.Entries() {
		builder.WriteString(sectionSeparator)
		builder.WriteString(StartDelimiter(collectedFile.RelativePath))
		builder.WriteString("\n")
		builder.WriteString(collectedFile.Content)
		builder.WriteString("\n")
		builder.WriteString(EndDelimiter(collectedFile.RelativePath))
		builder.WriteString("\n")
	}

	return builder.String()
}

// StartDelimiter returns the line opening the block of relativePath.
func StartDelimiter(relativePath string) string {
	return fmt.Sprintf(startDelimiterFormat, relativePath)
}

// EndDelimiter returns the line closing the block of relativePath.
func EndDelimiter(relativePath string) string {
	return fmt.Sprintf(endDelimiterFormat, relativePath)
}

// WriteArtifact replaces any file at artifactPath with text.
func WriteArtifact(artifactPath string, text string) error {
	if writeError := os.WriteFile(artifactPath, []byte(text), artifactFileMode); writeError != nil {
		return fmt.Errorf(errorWriteArtifactFormat, artifactPath, writeError)
	}
	return nil
}

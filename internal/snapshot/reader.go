package snapshot

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"

	"github.com/temirov/snapshot/internal/types"
)

// unreadableFilePlaceholderFormat replaces the content of a file that could not be read.
const unreadableFilePlaceholderFormat = "<Could not read file due to error: %v>"

// ReadText reads the whole file at path and decodes it as UTF-8, replacing invalid
// byte sequences with U+FFFD.
//
// #nosec G304
func ReadText(path string) types.FileReadResult {
	fileBytes, readError := os.ReadFile(path)
	if readError != nil {
		return types.FileReadResult{Failure: readError}
	}
	decodedBytes, decodeError := unicode.UTF8.NewDecoder().Bytes(fileBytes)
	if decodeError != nil {
		return types.FileReadResult{Failure: decodeError}
	}
	return types.FileReadResult{Content: string(decodedBytes)}
}

// ReadTextBestEffort returns the decoded content of path, or a placeholder describing
// the failure when the file cannot be read.
func ReadTextBestEffort(path string) string {
	return RenderReadResult(ReadText(path))
}

// RenderReadResult turns a read result into the text stored for a collected file.
func RenderReadResult(result types.FileReadResult) string {
	if result.Succeeded() {
		return result.Content
	}
	return fmt.Sprintf(unreadableFilePlaceholderFormat, result.Failure)
}

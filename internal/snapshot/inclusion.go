// Package snapshot walks a project directory, renders its tree and collects the
// contents of configuration and source files into a single artifact.
package snapshot

import (
	"path/filepath"
	"strings"
)

var includedExtensions = map[string]struct{}{
	".py":   {},
	".yml":  {},
	".yaml": {},
}

var includedFileNames = map[string]struct{}{
	"Dockerfile":          {},
	"docker-compose.yml":  {},
	"docker-compose.yaml": {},
}

// IsContentIncluded reports whether the content of fileName is embedded in the artifact.
// Matching is case-sensitive on the extension or the exact file name.
func IsContentIncluded(fileName string) bool {
	if _, included := includedFileNames[fileName]; included {
		return true
	}
	_, included := includedExtensions[fileExtension(fileName)]
	return included
}

// fileExtension ignores leading dots, so ".py" has no extension while ".hidden.py" does.
func fileExtension(fileName string) string {
	return filepath.Ext(strings.TrimLeft(fileName, "."))
}

// Package config loads ignore rules and application configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	// errorReadRulesFormat reports a rules file that exists but cannot be read.
	errorReadRulesFormat = "read ignore rules %s: %w"
	commentPrefix        = "#"
	pathSeparator        = "/"
	lineSeparator        = "\n"
)

// ExclusionRules is an ordered list of gitignore patterns evaluated against
// paths relative to the traversal root. The last matching pattern decides.
type ExclusionRules struct {
	patterns []string
	matcher  gitignore.Matcher
}

// NewExclusionRules compiles the provided patterns, dropping blanks and comments.
// Duplicates are kept since pattern order is significant.
func NewExclusionRules(patterns []string) *ExclusionRules {
	var cleaned []string
	var compiled []gitignore.Pattern
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" || strings.HasPrefix(trimmedPattern, commentPrefix) {
			continue
		}
		cleaned = append(cleaned, trimmedPattern)
		compiled = append(compiled, gitignore.ParsePattern(trimmedPattern, nil))
	}
	return &ExclusionRules{
		patterns: cleaned,
		matcher:  gitignore.NewMatcher(compiled),
	}
}

// LoadExclusionRules reads the rules file at rulesFilePath and appends extraPatterns.
// A missing file yields a rule set built from extraPatterns alone.
//
// #nosec G304
func LoadExclusionRules(rulesFilePath string, extraPatterns []string) (*ExclusionRules, error) {
	filePatterns, loadError := readRuleLines(rulesFilePath)
	if loadError != nil {
		return nil, fmt.Errorf(errorReadRulesFormat, rulesFilePath, loadError)
	}
	combinedPatterns := append(filePatterns, extraPatterns...)
	return NewExclusionRules(combinedPatterns), nil
}

func readRuleLines(rulesFilePath string) ([]string, error) {
	fileContent, readFileError := os.ReadFile(rulesFilePath)
	if readFileError != nil {
		if os.IsNotExist(readFileError) {
			return nil, nil
		}
		return nil, readFileError
	}
	return strings.Split(string(fileContent), lineSeparator), nil
}

// Matches reports whether the forward-slash relativePath is excluded. Directory-only
// patterns such as "build/" match the directory itself when isDirectory is set.
func (rules *ExclusionRules) Matches(relativePath string, isDirectory bool) bool {
	if rules == nil || len(rules.patterns) == 0 {
		return false
	}
	return rules.matcher.Match(strings.Split(relativePath, pathSeparator), isDirectory)
}

// Patterns returns the compiled patterns in evaluation order.
func (rules *ExclusionRules) Patterns() []string {
	if rules == nil {
		return nil
	}
	return rules.patterns
}

// Len reports the number of compiled patterns.
func (rules *ExclusionRules) Len() int {
	return len(rules.Patterns())
}

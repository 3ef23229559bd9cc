package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/temirov/snapshot/internal/config"
	"github.com/temirov/snapshot/internal/snapshot"
	"github.com/temirov/snapshot/internal/types"
)

const (
	firstPythonFileName  = "a.py"
	secondPythonFileName = "b.py"
	pythonFileContent    = "print('hello')\n"
	yamlFileContent      = "key: value\n"
)

func traverseForTest(testingHandle *testing.T, rootDirectory string, patterns []string, excludedPaths []string) (types.TreeLines, *types.CollectedFiles) {
	testingHandle.Helper()
	rules := config.NewExclusionRules(patterns)
	treeLines, collectedFiles, traverseError := snapshot.Traverse(context.Background(), rootDirectory, rules, excludedPaths, zaptest.NewLogger(testingHandle))
	if traverseError != nil {
		testingHandle.Fatalf("Traverse failed: %v", traverseError)
	}
	return treeLines, collectedFiles
}

// TestTraverseConnectors verifies the last entry uses the terminal connector.
func TestTraverseConnectors(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, secondPythonFileName), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, firstPythonFileName), pythonFileContent)

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, nil)

	expectedLines := types.TreeLines{"├── a.py", "└── b.py"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	entries := collectedFiles.Entries()
	if len(entries) != 2 || entries[0].RelativePath != firstPythonFileName || entries[1].RelativePath != secondPythonFileName {
		testingHandle.Fatalf("unexpected collected files: %+v", entries)
	}
}

// TestTraverseNestedPrefixes verifies indentation prefixes depend on whether ancestors were last.
func TestTraverseNestedPrefixes(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "app", "main.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "app", "conf", "settings.yaml"), yamlFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "app", "conf", "z.txt"), "z")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "deploy", "Dockerfile"), "FROM scratch\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "deploy", "k8s", "service.yml"), yamlFileContent)
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "empty"))

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, nil)

	expectedLines := types.TreeLines{
		"├── app",
		"│   ├── conf",
		"│   │   ├── settings.yaml",
		"│   │   └── z.txt",
		"│   └── main.py",
		"├── deploy",
		"│   ├── Dockerfile",
		"│   └── k8s",
		"│       └── service.yml",
		"└── empty",
	}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines:\n%s\nwant:\n%s", strings.Join(treeLines, "\n"), strings.Join(expectedLines, "\n"))
	}

	var collectedPaths []string
	for _, entry := range collectedFiles.Entries() {
		collectedPaths = append(collectedPaths, entry.RelativePath)
	}
	expectedPaths := []string{"app/conf/settings.yaml", "app/main.py", "deploy/Dockerfile", "deploy/k8s/service.yml"}
	if !reflect.DeepEqual(collectedPaths, expectedPaths) {
		testingHandle.Fatalf("unexpected collected paths: got %v want %v", collectedPaths, expectedPaths)
	}
	if content, found := collectedFiles.Get("deploy/Dockerfile"); !found || content != "FROM scratch\n" {
		testingHandle.Fatalf("unexpected Dockerfile content %q (found %v)", content, found)
	}
}

// TestTraverseSortsEntries verifies children appear in ascending byte order.
func TestTraverseSortsEntries(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	names := []string{"zeta.py", "Alpha.py", "beta.txt", "_private.py", "10.yml", "2.yml"}
	for _, name := range names {
		writeTestFile(testingHandle, filepath.Join(rootDirectory, name), "x")
	}

	treeLines, _ := traverseForTest(testingHandle, rootDirectory, nil, nil)

	var emittedNames []string
	for _, treeLine := range treeLines {
		emittedNames = append(emittedNames, strings.TrimPrefix(strings.TrimPrefix(treeLine, types.ConnectorMiddle), types.ConnectorLast))
	}
	expectedNames := append([]string{}, names...)
	sort.Strings(expectedNames)
	if !reflect.DeepEqual(emittedNames, expectedNames) {
		testingHandle.Fatalf("entries not sorted: got %v want %v", emittedNames, expectedNames)
	}
}

// TestTraverseHonorsExclusionRules verifies rule matches vanish from tree and contents.
func TestTraverseHonorsExclusionRules(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "keep.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "secret.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "nested", "secret.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "nested", "debug.log"), "log")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "build", "out.py"), pythonFileContent)

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, []string{"secret.py", "*.log", "build/"}, nil)

	expectedLines := types.TreeLines{"├── keep.py", "└── nested"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	if collectedFiles.Len() != 1 {
		testingHandle.Fatalf("expected only keep.py to be collected, got %+v", collectedFiles.Entries())
	}
	if _, found := collectedFiles.Get("keep.py"); !found {
		testingHandle.Fatalf("expected keep.py to be collected")
	}
}

// TestTraverseSkipsGitAndToolArtifactsByPath verifies version control metadata and excluded root-relative paths are hidden while same-named nested files stay.
func TestTraverseSkipsGitAndToolArtifactsByPath(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".git", "config.yml"), yamlFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "snapshot.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "report.txt"), "old")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "tools", "snapshot.py"), pythonFileContent)

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, []string{"snapshot.py", "report.txt"})

	expectedLines := types.TreeLines{"└── tools", "    └── snapshot.py"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	if _, found := collectedFiles.Get("snapshot.py"); found {
		testingHandle.Fatalf("tool artifact must not be collected")
	}
	if _, found := collectedFiles.Get("tools/snapshot.py"); !found {
		testingHandle.Fatalf("nested file with the same name must still be collected")
	}
}

// TestTraverseRecordsPlaceholderForUnreadableFile verifies a failing read does not abort the walk.
func TestTraverseRecordsPlaceholderForUnreadableFile(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "good.py"), pythonFileContent)
	if symlinkError := os.Symlink(filepath.Join(rootDirectory, "missing-target.py"), filepath.Join(rootDirectory, "broken.py")); symlinkError != nil {
		testingHandle.Skipf("symbolic links unavailable: %v", symlinkError)
	}

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, nil)

	expectedLines := types.TreeLines{"├── broken.py", "└── good.py"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	brokenContent, found := collectedFiles.Get("broken.py")
	if !found || !strings.HasPrefix(brokenContent, placeholderPrefix) {
		testingHandle.Fatalf("expected placeholder for broken.py, got %q", brokenContent)
	}
	if goodContent, _ := collectedFiles.Get("good.py"); goodContent != pythonFileContent {
		testingHandle.Fatalf("unexpected content for good.py: %q", goodContent)
	}
}

// TestTraverseFollowsDirectorySymlinks verifies linked directories are listed like directories.
func TestTraverseFollowsDirectorySymlinks(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	externalDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(externalDirectory, "lib.py"), pythonFileContent)
	if symlinkError := os.Symlink(externalDirectory, filepath.Join(rootDirectory, "linked")); symlinkError != nil {
		testingHandle.Skipf("symbolic links unavailable: %v", symlinkError)
	}

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, nil)

	expectedLines := types.TreeLines{"└── linked", "    └── lib.py"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	if _, found := collectedFiles.Get("linked/lib.py"); !found {
		testingHandle.Fatalf("expected linked/lib.py to be collected")
	}
}

// TestTraverseSkipsUnreadableSubdirectory verifies the subtree is dropped while the node stays.
func TestTraverseSkipsUnreadableSubdirectory(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("permission checks are bypassed for root")
	}
	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	writeTestFile(testingHandle, filepath.Join(lockedDirectory, "hidden.py"), pythonFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "open.py"), pythonFileContent)
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod failed: %v", chmodError)
	}
	testingHandle.Cleanup(func() {
		_ = os.Chmod(lockedDirectory, 0o755)
	})

	treeLines, collectedFiles := traverseForTest(testingHandle, rootDirectory, nil, nil)

	expectedLines := types.TreeLines{"├── locked", "└── open.py"}
	if !reflect.DeepEqual(treeLines, expectedLines) {
		testingHandle.Fatalf("unexpected tree lines: got %q want %q", treeLines, expectedLines)
	}
	if collectedFiles.Len() != 1 {
		testingHandle.Fatalf("expected one collected file, got %d", collectedFiles.Len())
	}
}

// TestTraverseFailsForMissingRoot verifies a root listing failure is returned.
func TestTraverseFailsForMissingRoot(testingHandle *testing.T) {
	missingRoot := filepath.Join(testingHandle.TempDir(), "absent")
	_, _, traverseError := snapshot.Traverse(context.Background(), missingRoot, config.NewExclusionRules(nil), nil, zaptest.NewLogger(testingHandle))
	if traverseError == nil {
		testingHandle.Fatalf("expected error for missing root")
	}
}

// TestTraverseStopsOnCanceledContext verifies cancellation is reported.
func TestTraverseStopsOnCanceledContext(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.py"), pythonFileContent)
	canceledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, traverseError := snapshot.Traverse(canceledContext, rootDirectory, config.NewExclusionRules(nil), nil, zaptest.NewLogger(testingHandle))
	if traverseError == nil {
		testingHandle.Fatalf("expected cancellation error")
	}
}

package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/paths"
)

const demoManifest = `
[workspace]
name = "demo"
location = "."

[[rule]]
name = "embed"
match = ["*.txt"]
message = "Embedding {{ file.name }}"
commands = ["xxd -i {{ file.relpath }} %[{{ props.dir }}/{{ file.basename }}.c]"]
outputs = ["{{ props.dir }}/{{ file.basename }}.c"]

[rule.properties]
dir = "gen"

[[project]]
name = "core"
kind = "StaticLib"
basedir = "core"
location = "."
files = ["src/**/*.cpp", "data/*.txt"]
rules = ["embed"]

[project.settings]
includedirs = ["include"]
targetdir = "bin/{{ configuration }}"
cppdialect = "C++17"

[project.settings.'configuration == "Debug"']
defines = ["DEBUG"]
symbols = true

[project.settings.'configuration == "Release"']
defines = ["NDEBUG"]
optimize = "Speed"

[project.file."src/fast/*.cpp"]
buildoptions = ["-ffast-math"]

[project.file."src/fast/*.cpp".'configuration == "Release"']
buildoptions = ["-funroll-loops"]

[[project]]
name = "app"
kind = "ConsoleApp"
basedir = "app"
location = "."
files = ["*.cpp"]

[project.settings]
links = ["core", "m"]
linkgroups = true
toolset = "gcc"
`

// writeTree creates files under dir from a path -> content map.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func demoWorkspace(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		WorkspaceFileName:     manifest,
		"core/src/a.cpp":      "",
		"core/src/fast/b.cpp": "",
		"core/src/notes.md":   "",
		"core/data/logo.txt":  "",
		"core/include/core.h": "",
		"app/main.cpp":        "",
	})
	return dir
}

func resolveIn(t *testing.T, dir string) (*model.Workspace, error) {
	t.Helper()
	m, err := ParseManifestFromFile(filepath.Join(dir, WorkspaceFileName))
	require.NoError(t, err)
	return m.Resolve(ResolveOptions{Dir: dir, System: "linux"})
}

func leafPaths(base string, tree *model.SourceTree) []string {
	var out []string
	for _, n := range tree.Leaves() {
		out = append(out, paths.Slash.Rel(base, n.Path))
	}
	return out
}

func TestResolve(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	wks, err := resolveIn(t, dir)
	require.NoError(t, err)
	root := paths.ToSlash(dir)

	assert.Equal(t, "demo", wks.Name)
	assert.Equal(t, root, wks.Location)
	require.Len(t, wks.Projects, 2)
	require.Len(t, wks.Rules, 1)
	assert.Equal(t, []model.RuleProperty{{Name: "dir", Default: "gen"}}, wks.Rules[0].Properties)

	core := wks.Project("core")
	require.NotNil(t, core)
	assert.Equal(t, root+"/core", core.BaseDir)
	assert.Equal(t, root, core.Location)
	assert.Equal(t, []string{"data/logo.txt", "src/a.cpp", "src/fast/b.cpp"}, leafPaths(core.BaseDir, core.Files))
	assert.Equal(t, model.RuleSet{wks.Rules[0]}, core.Rules)

	debug := core.Config("Debug")
	require.NotNil(t, debug)
	assert.Equal(t, "linux", debug.System)
	assert.Equal(t, []string{"DEBUG"}, debug.Defines)
	assert.True(t, debug.Symbols)
	assert.Equal(t, []string{root + "/core/include"}, debug.IncludeDirs)
	assert.Equal(t, root+"/core/bin/Debug", debug.TargetDir)
	assert.Equal(t, "C++17", debug.CppDialect)

	release := core.Config("Release")
	require.NotNil(t, release)
	assert.Equal(t, []string{"NDEBUG"}, release.Defines)
	assert.Equal(t, "Speed", release.Optimize)
	assert.False(t, release.Symbols)

	fast := core.Files.Find(root + "/core/src/fast/b.cpp")
	require.NotNil(t, fast)
	assert.Equal(t, []string{"-ffast-math"}, fast.Config(debug).BuildOptions)
	assert.Equal(t, []string{"-ffast-math", "-funroll-loops"}, fast.Config(release).BuildOptions)
	assert.Nil(t, core.Files.Find(root+"/core/src/a.cpp").Config(debug))

	app := wks.Project("app")
	require.NotNil(t, app)
	assert.Equal(t, []*model.Project{core}, app.Dependencies)
	appDebug := app.Config("Debug")
	assert.Equal(t, []*model.Project{core}, appDebug.ProjectLinks())
	assert.Equal(t, []string{"m"}, appDebug.SystemLinks())
	assert.True(t, appDebug.LinkGroups)
	assert.Equal(t, "gcc", appDebug.Toolset)
	assert.Equal(t, app.Location, appDebug.TargetDir)
}

func TestResolveErrors(t *testing.T) {
	const header = "[workspace]\nname = \"demo\"\nlocation = \".\"\n"
	tests := []struct {
		name     string
		manifest string
		want     error
	}{
		{"unknown rule", header + "[[project]]\nname = \"a\"\nrules = [\"nope\"]\n", ErrUnknownRule},
		{"unknown dependency", header + "[[project]]\nname = \"a\"\ndependson = [\"b\"]\n", ErrUnknownDependency},
		{"duplicate", header + "[[project]]\nname = \"a\"\n[[project]]\nname = \"a\"\n", ErrDuplicateProject},
		{"bad kind", header + "[[project]]\nname = \"a\"\nkind = \"Library\"\n", ErrUnknownKind},
		{"link executable", header + "[[project]]\nname = \"a\"\nkind = \"ConsoleApp\"\n[[project]]\nname = \"b\"\n[project.settings]\nlinks = [\"a\"]\n", ErrNotLinkable},
		{"link kind from settings", header + "[[project]]\nname = \"a\"\n[project.settings]\nkind = \"ConsoleApp\"\n[[project]]\nname = \"b\"\n[project.settings]\nlinks = [\"a\"]\n", ErrNotLinkable},
		{"link utility", header + "[[project]]\nname = \"docs\"\nkind = \"Utility\"\n[[project]]\nname = \"b\"\n[project.settings]\nlinks = [\"docs\"]\n", ErrNotLinkable},
		{"bad settings kind", header + "[[project]]\nname = \"a\"\n[project.settings]\nkind = \"Library\"\n", ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := demoWorkspace(t, tt.manifest)
			_, err := resolveIn(t, dir)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveDefaultLocation(t *testing.T) {
	dir := demoWorkspace(t, strings.Replace(demoManifest, "location = \".\"\n", "", 1))
	m, err := ParseManifestFromFile(filepath.Join(dir, WorkspaceFileName))
	require.NoError(t, err)

	wks, err := m.Resolve(ResolveOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, paths.ToSlash(dir), wks.Location)
	assert.Equal(t, HostSystem(), wks.Projects[0].Configs[0].System)

	m.Workspace.Location = "build"
	wks, err = m.Resolve(ResolveOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, paths.ToSlash(dir)+"/build", wks.Location)
}

func TestResolveHomeDir(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", "/home/tester")

	manifest := strings.Replace(demoManifest, `includedirs = ["include"]`, `includedirs = ["include", "~/sdk/include"]`, 1)
	dir := demoWorkspace(t, manifest)
	wks, err := resolveIn(t, dir)
	require.NoError(t, err)

	cfg := wks.Project("core").Config("Debug")
	assert.Equal(t, []string{paths.ToSlash(dir) + "/core/include", "/home/tester/sdk/include"}, cfg.IncludeDirs)
}

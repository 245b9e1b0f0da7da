package builder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/qobsgen/internal/builder/gen"
)

func newTestBuilder(t *testing.T, dir string) *Builder {
	t.Helper()
	b, err := NewBuilderInDirectory(dir, Options{System: "linux"})
	require.NoError(t, err)
	return b
}

func readFile(t *testing.T, elem ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(elem...))
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	b := newTestBuilder(t, dir)
	require.NoError(t, b.Generate(context.Background()))

	lists := readFile(t, dir, "CMakeLists.txt")
	assert.Contains(t, lists, "project(\"demo\")\n")
	assert.Contains(t, lists, "include(\"core.cmake\")\ninclude(\"app.cmake\")\n")

	core := readFile(t, dir, "core.cmake")
	assert.True(t, strings.HasPrefix(core, "add_library(\"core\" STATIC\n\t\"core/gen/logo.c\"\n\t\"core/src/a.cpp\"\n\t\"core/src/fast/b.cpp\"\n)\n"), core)
	assert.Contains(t, core, `	add_custom_command(OUTPUT "${CMAKE_CURRENT_SOURCE_DIR}/core/gen/logo.c"
		COMMAND echo Embedding logo.txt
		COMMAND xxd -i core/data/logo.txt core/gen/logo.c
		DEPENDS "${CMAKE_CURRENT_SOURCE_DIR}/core/data/logo.txt"
		WORKING_DIRECTORY "${CMAKE_CURRENT_SOURCE_DIR}"
	)
`)
	assert.Contains(t, core, `set_source_files_properties("core/src/fast/b.cpp" PROPERTIES COMPILE_FLAGS "-ffast-math -funroll-loops")`)
	assert.Contains(t, core, `ARCHIVE_OUTPUT_DIRECTORY "core/bin/Release"`)

	app := readFile(t, dir, "app.cmake")
	assert.Contains(t, app, "\tadd_dependencies(\"app\" \"core\")\n")
	assert.Contains(t, app, "-Wl,--start-group\n\t\t\"core\"\n\t\t-Wl,--end-group\n")
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	b := newTestBuilder(t, dir)
	ctx := context.Background()
	require.NoError(t, b.Generate(ctx))

	before, err := os.Stat(filepath.Join(dir, "core.cmake"))
	require.NoError(t, err)

	outputs, err := b.Render(ctx)
	require.NoError(t, err)
	require.Len(t, outputs, 3)
	for _, out := range outputs {
		assert.False(t, out.Changed, out.Path)
		assert.Equal(t, out.Old, out.Data)
	}

	require.NoError(t, b.Generate(ctx))
	after, err := os.Stat(filepath.Join(dir, "core.cmake"))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.NoError(t, b.Check(ctx))
}

func TestCheckAndDiff(t *testing.T) {
	color.NoColor = true
	dir := demoWorkspace(t, demoManifest)
	b := newTestBuilder(t, dir)
	ctx := context.Background()

	err := b.Check(ctx)
	assert.ErrorIs(t, err, ErrOutOfDate)
	_, statErr := os.Stat(filepath.Join(dir, "CMakeLists.txt"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "check must not write")

	require.NoError(t, b.Generate(ctx))
	path := filepath.Join(dir, "app.cmake")
	script := readFile(t, path)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(script, `"m"`, `"dl"`, 1)), 0o644))

	assert.ErrorIs(t, b.Check(ctx), ErrOutOfDate)

	var buf bytes.Buffer
	require.NoError(t, b.Diff(ctx, &buf))
	out := buf.String()
	assert.Contains(t, out, "--- "+filepath.ToSlash(path))
	assert.Contains(t, out, "-\t\t\"dl\"\n")
	assert.Contains(t, out, "+\t\t\"m\"\n")
	assert.NotContains(t, out, "core.cmake")
}

func TestGenerateFailureWritesNothing(t *testing.T) {
	manifest := strings.Replace(demoManifest, `cppdialect = "C++17"`, `cppdialect = "C++2c"`, 1)
	manifest = strings.Replace(manifest, `toolset = "gcc"`, `toolset = "watcom"`, 1)
	dir := demoWorkspace(t, manifest)
	b := newTestBuilder(t, dir)

	err := b.Generate(context.Background())
	require.Error(t, err)

	var dialectErr *gen.UnrecognizedDialectError
	assert.ErrorAs(t, err, &dialectErr)
	assert.Contains(t, err.Error(), `project "app"`)
	assert.Contains(t, err.Error(), `unknown toolset "watcom"`)

	for _, name := range []string{"CMakeLists.txt", "core.cmake", "app.cmake"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, errors.Is(err, os.ErrNotExist), name)
	}
}

func TestToolsetOverride(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	b, err := NewBuilderInDirectory(dir, Options{System: "linux", Toolset: "msc"})
	require.NoError(t, err)
	require.NoError(t, b.Generate(context.Background()))
	assert.NotContains(t, readFile(t, dir, "app.cmake"), "-Wl,--start-group")
}

func TestDefaultToolsetKeepsConfiguredToolset(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	b, err := NewBuilderInDirectory(dir, Options{System: "linux", DefaultToolset: "msc"})
	require.NoError(t, err)
	require.NoError(t, b.Generate(context.Background()))
	assert.Contains(t, readFile(t, dir, "app.cmake"), "-Wl,--start-group")
}

func TestGenerateRefusesForeignWorkspaceFile(t *testing.T) {
	dir := demoWorkspace(t, demoManifest)
	const mine = "project(mine)\nadd_subdirectory(other)\n"
	writeTree(t, dir, map[string]string{"CMakeLists.txt": mine})

	b := newTestBuilder(t, dir)
	err := b.Generate(context.Background())
	assert.ErrorIs(t, err, ErrForeignFile)
	assert.Equal(t, mine, readFile(t, dir, "CMakeLists.txt"))
	_, statErr := os.Stat(filepath.Join(dir, "core.cmake"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestGenerateInsideRepository(t *testing.T) {
	repo := t.TempDir()
	initRepo(t, repo)
	const mine = "project(mine)\nadd_subdirectory(other)\n"
	writeTree(t, repo, map[string]string{"CMakeLists.txt": mine})

	dir := filepath.Join(repo, "tools", "gen")
	writeTree(t, dir, map[string]string{
		WorkspaceFileName: "[workspace]\nname = \"gen\"\n[[project]]\nname = \"a\"\nkind = \"ConsoleApp\"\nfiles = [\"*.c\"]\n",
		"main.c":          "",
	})

	require.NoError(t, newTestBuilder(t, dir).Generate(context.Background()))
	assert.Equal(t, mine, readFile(t, repo, "CMakeLists.txt"))
	assert.Contains(t, readFile(t, dir, "CMakeLists.txt"), "include(\"a.cmake\")\n")
}

func TestTargetlessProjectsAreNotReferenced(t *testing.T) {
	manifest := strings.Replace(demoManifest, `links = ["core", "m"]`, `links = ["core", "hdrs", "m"]`, 1)
	manifest = strings.Replace(manifest, `files = ["*.cpp"]`, `files = ["*.cpp"]
dependson = ["docs"]`, 1) + `
[[project]]
name = "docs"
kind = "Utility"

[[project]]
name = "hdrs"
basedir = "core"
files = ["include/*.h"]
`
	dir := demoWorkspace(t, manifest)
	require.NoError(t, newTestBuilder(t, dir).Generate(context.Background()))

	app := readFile(t, dir, "app.cmake")
	assert.Contains(t, app, "\tadd_dependencies(\"app\" \"core\")\n")
	assert.NotContains(t, app, "docs")
	assert.NotContains(t, app, "hdrs")
	assert.NotContains(t, readFile(t, dir, "CMakeLists.txt"), "hdrs")
}

func TestUtilityProjectsAreSkipped(t *testing.T) {
	manifest := demoManifest + `
[[project]]
name = "docs"
kind = "Utility"
location = "."
`
	dir := demoWorkspace(t, manifest)
	b := newTestBuilder(t, dir)
	require.NoError(t, b.Generate(context.Background()))

	assert.NotContains(t, readFile(t, dir, "CMakeLists.txt"), "docs")
	_, err := os.Stat(filepath.Join(dir, "docs.cmake"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "sub", "out.cmake")
	require.NoError(t, writeFileAtomic(name, []byte("one\n")))
	require.NoError(t, writeFileAtomic(name, []byte("two\n")))
	assert.Equal(t, "two\n", readFile(t, name))

	entries, err := os.ReadDir(filepath.Dir(name))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

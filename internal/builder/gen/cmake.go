package gen

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/paths"
)

const (
	cmakeWorkspaceFile = "CMakeLists.txt"
	generatedMarker    = "# Generated by qobsgen."
)

// CMakeGen renders one <project>.cmake script per project and a
// CMakeLists.txt including them.
type CMakeGen struct {
	// Toolset, when set, overrides the toolset of every configuration.
	Toolset string
	// DefaultToolset is used by configurations that do not pick a toolset.
	DefaultToolset string
	// Style renders the relative paths of the output.
	Style paths.Style
	// FileExists is used to locate precompiled headers.
	FileExists func(path string) bool
}

func NewCMakeGen() *CMakeGen {
	return &CMakeGen{Style: paths.Slash, FileExists: fileExists}
}

func fileExists(p string) bool {
	stat, err := os.Stat(p)
	return err == nil && !stat.IsDir()
}

func (g *CMakeGen) ProjectFile(prj *model.Project) string {
	return path.Join(paths.ToSlash(prj.Location), prj.Name+".cmake")
}

func (g *CMakeGen) WorkspaceFile(wks *model.Workspace) string {
	return path.Join(paths.ToSlash(wks.Location), cmakeWorkspaceFile)
}

// projectEmitter holds the state of a single project's emission. Nothing in it
// outlives the call to Project.
type projectEmitter struct {
	g      *CMakeGen
	prj    *model.Project
	w      writer
	style  paths.Style
	target string // quoted target name
}

func (g *CMakeGen) Project(prj *model.Project) ([]byte, error) {
	if !prj.HasTarget() {
		return nil, nil
	}
	kind := prj.ResolvedKind()

	style := g.Style
	if style.Sep == 0 {
		style = paths.Slash
	}
	e := &projectEmitter{g: g, prj: prj, style: style, target: quote(prj.Name)}

	if err := e.declareTarget(kind); err != nil {
		return nil, fmt.Errorf("project %q: %w", prj.Name, err)
	}
	for _, cfg := range prj.Configs {
		if err := e.config(cfg); err != nil {
			return nil, fmt.Errorf("project %q, configuration %q: %w", prj.Name, cfg.Name, err)
		}
	}
	return e.w.bytes(), nil
}

// declareTarget opens the target with its full file list.
func (e *projectEmitter) declareTarget(kind model.Kind) error {
	switch kind {
	case model.KindStaticLib:
		e.w.writeln(0, "add_library(", e.target, " STATIC")
	case model.KindSharedLib:
		e.w.writeln(0, "add_library(", e.target, " SHARED")
	case model.KindConsoleApp:
		e.w.writeln(0, "add_executable(", e.target)
	case model.KindWindowedApp:
		e.w.writeln(0, "add_executable(", e.target, " WIN32")
	default:
		return fmt.Errorf("unsupported project kind %q", kind)
	}
	if err := e.files(); err != nil {
		return err
	}
	e.w.writeln(0, ")")

	if e.prj.TargetExtension != "" {
		e.w.writeln(0, "set_target_properties(", e.target, " PROPERTIES SUFFIX ", quote(e.prj.TargetExtension), ")")
	}
	return nil
}

// rel renders p relative to the workspace root. Relative inputs are taken
// relative to the project's base directory first.
func (e *projectEmitter) rel(p string) string {
	return e.style.Rel(e.prj.WorkspaceLocation(), paths.Join(e.prj.BaseDir, p))
}

// sourcePath renders p so that it resolves from any working directory.
func (e *projectEmitter) sourcePath(p string) string {
	r := e.rel(p)
	switch {
	case paths.IsAbs(r):
		return r
	case r == ".":
		return "${CMAKE_CURRENT_SOURCE_DIR}"
	}
	return "${CMAKE_CURRENT_SOURCE_DIR}/" + r
}

func (e *projectEmitter) sourcePaths(ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = e.sourcePath(p)
	}
	return out
}

// workingDir is the directory custom commands and build events run in.
// Command paths, including translated %[path] markers, are relative to it.
func (e *projectEmitter) workingDir() string {
	return quote(e.sourcePath(e.prj.Location))
}

// translator rewrites commands for cfg's system. Windows shells need native
// separators in rebased paths.
func (e *projectEmitter) translator(cfg *model.Config) paths.Translator {
	style := e.style
	if cfg.System == "windows" {
		style = paths.Backslash
	}
	return paths.Translator{
		Style:    style,
		System:   cfg.System,
		BaseDir:  e.prj.BaseDir,
		Location: e.prj.Location,
	}
}

func (g *CMakeGen) Generated(data []byte) bool {
	return bytes.HasPrefix(data, []byte(generatedMarker))
}

// Workspace renders the CMakeLists.txt including every emitted project.
func (g *CMakeGen) Workspace(wks *model.Workspace, projects []*model.Project) ([]byte, error) {
	var w writer
	w.writeln(0, generatedMarker, " Do not edit.")
	w.writeln(0, "cmake_minimum_required(VERSION 3.16)")
	w.writeln(0)
	w.writeln(0, "project(", quote(wks.Name), ")")
	w.writeln(0)

	if len(wks.Configurations) > 0 {
		def := wks.Configurations[0]
		w.writeln(0, "if(NOT CMAKE_BUILD_TYPE)")
		w.writeln(1, "set(CMAKE_BUILD_TYPE ", quote(def), ")")
		w.writeln(1, "message(", quote("No CMAKE_BUILD_TYPE set, defaulting to "+def), ")")
		w.writeln(0, "endif()")
		w.writeln(0)
	}

	style := g.Style
	if style.Sep == 0 {
		style = paths.Slash
	}
	for _, prj := range projects {
		w.writeln(0, "include(", quote(style.Rel(wks.Location, g.ProjectFile(prj))), ")")
	}
	return w.bytes(), nil
}

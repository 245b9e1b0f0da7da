package gen

import (
	"strings"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/toolset"
)

// config writes the block guarded on the configuration's build type. The
// statement order is fixed: later statements refer to names declared earlier.
func (e *projectEmitter) config(cfg *model.Config) error {
	ts, err := toolset.Resolve(cfg, e.g.Toolset, e.g.DefaultToolset)
	if err != nil {
		return err
	}

	e.w.writeln(0, "if(CMAKE_BUILD_TYPE STREQUAL ", quote(cfg.Name), ")")
	e.dependencies()
	e.outputs(cfg)
	e.includeDirs(cfg)
	e.forceIncludes(cfg)
	e.defines(cfg)
	e.libDirs(cfg)
	e.links(cfg, ts)
	e.options(cfg)
	e.compileFlags(cfg, ts)
	e.fileFlags(cfg, ts)
	if err := e.standard(cfg); err != nil {
		return err
	}
	e.pch(cfg)
	e.buildEvents(cfg)
	if err := e.customCommands(cfg); err != nil {
		return err
	}
	e.w.writeln(0, "endif()")
	return nil
}

// dependencies writes the ordering edges. Projects without a target have
// nothing to wait for and are left out.
func (e *projectEmitter) dependencies() {
	var names []string
	for _, dep := range e.prj.Dependencies {
		if dep.HasTarget() {
			names = append(names, dep.Name)
		}
	}
	if len(names) == 0 {
		return
	}
	e.w.writeln(1, "add_dependencies(", e.target, " ", quoteAll(names), ")")
}

func (e *projectEmitter) outputs(cfg *model.Config) {
	name := cfg.TargetName
	if name == "" {
		name = e.prj.Name
	}
	dir := cfg.TargetDir
	if dir == "" {
		dir = e.prj.Location
	}
	dir = quote(e.rel(dir))

	e.w.writeln(1, "set_target_properties(", e.target, " PROPERTIES")
	e.w.writeln(2, "OUTPUT_NAME ", quote(name))
	e.w.writeln(2, "ARCHIVE_OUTPUT_DIRECTORY ", dir)
	e.w.writeln(2, "LIBRARY_OUTPUT_DIRECTORY ", dir)
	e.w.writeln(2, "RUNTIME_OUTPUT_DIRECTORY ", dir)
	e.w.writeln(1, ")")
}

func (e *projectEmitter) includeDirs(cfg *model.Config) {
	if len(cfg.SysIncludeDirs) > 0 {
		e.w.writeln(1, "target_include_directories(", e.target, " SYSTEM PRIVATE")
		for _, dir := range cfg.SysIncludeDirs {
			e.w.writeln(2, quote(e.rel(dir)))
		}
		e.w.writeln(1, ")")
	}
	if len(cfg.IncludeDirs) > 0 {
		e.w.writeln(1, "target_include_directories(", e.target, " PRIVATE")
		for _, dir := range cfg.IncludeDirs {
			e.w.writeln(2, quote(e.rel(dir)))
		}
		e.w.writeln(1, ")")
	}
}

// forceIncludes writes both flag syntaxes; CMake picks one by compiler.
func (e *projectEmitter) forceIncludes(cfg *model.Config) {
	if len(cfg.ForceIncludes) == 0 {
		return
	}
	files := make([]string, len(cfg.ForceIncludes))
	for i, f := range cfg.ForceIncludes {
		files[i] = e.sourcePath(f)
	}

	e.w.writeln(1, "# force include")
	e.w.writeln(1, "if(MSVC)")
	e.w.writeln(2, "target_compile_options(", e.target, " PRIVATE ", quoteAll(toolset.MSC.ForceIncludes(files)), ")")
	e.w.writeln(1, "else()")
	e.w.writeln(2, "target_compile_options(", e.target, " PRIVATE ", quoteAll(toolset.GCC.ForceIncludes(files)), ")")
	e.w.writeln(1, "endif()")
}

func (e *projectEmitter) defines(cfg *model.Config) {
	if len(cfg.Defines) == 0 {
		return
	}
	e.w.writeln(1, "target_compile_definitions(", e.target, " PRIVATE")
	for _, def := range cfg.Defines {
		e.w.writeln(2, escapeDefine(def))
	}
	e.w.writeln(1, ")")
}

func (e *projectEmitter) libDirs(cfg *model.Config) {
	if len(cfg.LibDirs) == 0 {
		return
	}
	e.w.writeln(1, "target_link_directories(", e.target, " PRIVATE")
	for _, dir := range cfg.LibDirs {
		e.w.writeln(2, quote(e.rel(dir)))
	}
	e.w.writeln(1, ")")
}

// links writes the link list. With link groups enabled on a GCC-family
// toolset, project and system libraries are each wrapped in their own group.
// Header-only projects have nothing to link and are skipped.
func (e *projectEmitter) links(cfg *model.Config, ts toolset.Toolset) {
	var prjLinks []*model.Project
	for _, dep := range cfg.ProjectLinks() {
		if dep.HasTarget() {
			prjLinks = append(prjLinks, dep)
		}
	}
	sysLinks := cfg.SystemLinks()
	if len(prjLinks) == 0 && len(sysLinks) == 0 {
		return
	}
	group := cfg.LinkGroups && toolset.IsGCC(ts)

	e.w.writeln(1, "target_link_libraries(", e.target)
	if len(prjLinks) > 0 {
		if group {
			e.w.writeln(2, "-Wl,--start-group")
		}
		for _, dep := range prjLinks {
			e.w.writeln(2, quote(dep.Name))
		}
		if group {
			e.w.writeln(2, "-Wl,--end-group")
		}
	}
	if len(sysLinks) > 0 {
		if group {
			e.w.writeln(2, "-Wl,--start-group")
		}
		for _, lib := range sysLinks {
			e.w.writeln(2, quote(lib))
		}
		if group {
			e.w.writeln(2, "-Wl,--end-group")
		}
	}
	e.w.writeln(1, ")")
}

func (e *projectEmitter) options(cfg *model.Config) {
	if len(cfg.BuildOptions) > 0 {
		e.w.writeln(1, "set_target_properties(", e.target, " PROPERTIES COMPILE_FLAGS ", quote(strings.Join(cfg.BuildOptions, " ")), ")")
	}
	if len(cfg.LinkOptions) > 0 {
		e.w.writeln(1, "set_target_properties(", e.target, " PROPERTIES LINK_FLAGS ", quote(strings.Join(cfg.LinkOptions, " ")), ")")
	}
}

// compileFlags writes the toolset flags, each limited to its language.
func (e *projectEmitter) compileFlags(cfg *model.Config, ts toolset.Toolset) {
	cflags := ts.CFlags(cfg.Settings)
	cxxflags := ts.CxxFlags(cfg.Settings)
	if len(cflags) == 0 && len(cxxflags) == 0 {
		return
	}
	e.w.writeln(1, "target_compile_options(", e.target, " PRIVATE")
	for _, f := range cflags {
		e.w.writeln(2, quote("$<$<COMPILE_LANGUAGE:C>:"+f+">"))
	}
	for _, f := range cxxflags {
		e.w.writeln(2, quote("$<$<COMPILE_LANGUAGE:CXX>:"+f+">"))
	}
	e.w.writeln(1, ")")
}

func (e *projectEmitter) fileFlags(cfg *model.Config, ts toolset.Toolset) {
	for _, node := range e.prj.Files.Leaves() {
		fc := node.Config(cfg)
		if fc == nil {
			continue
		}
		var flags []string
		if isCFile(node.Name) {
			flags = ts.CFlags(fc.Settings)
		} else {
			flags = ts.CxxFlags(fc.Settings)
		}
		flags = append(flags, fc.BuildOptions...)
		if len(flags) == 0 {
			continue
		}
		e.w.writeln(1, "set_source_files_properties(", quote(e.rel(node.Path)), " PROPERTIES COMPILE_FLAGS ", quote(strings.Join(flags, " ")), ")")
	}
}

// buildEvents writes the pre-build step as a separate target the project
// depends on, and the post-build step as a command attached to the target.
func (e *projectEmitter) buildEvents(cfg *model.Config) {
	tr := e.translator(cfg)

	if cfg.PreBuildMessage != "" || len(cfg.PreBuildCommands) > 0 {
		prebuild := quote("prebuild-" + e.prj.Name)
		e.w.writeln(1, "add_custom_target(", prebuild)
		if cfg.PreBuildMessage != "" {
			e.w.writeln(2, "COMMAND ", escape(tr.Echo(cfg.PreBuildMessage)))
		}
		for _, cmd := range tr.Commands(cfg.PreBuildCommands) {
			e.w.writeln(2, "COMMAND ", escape(cmd))
		}
		e.w.writeln(2, "WORKING_DIRECTORY ", e.workingDir())
		e.w.writeln(1, ")")
		e.w.writeln(1, "add_dependencies(", e.target, " ", prebuild, ")")
	}

	if cfg.PostBuildMessage != "" || len(cfg.PostBuildCommands) > 0 {
		e.w.writeln(1, "add_custom_command(TARGET ", e.target, " POST_BUILD")
		if cfg.PostBuildMessage != "" {
			e.w.writeln(2, "COMMAND ", escape(tr.Echo(cfg.PostBuildMessage)))
		}
		for _, cmd := range tr.Commands(cfg.PostBuildCommands) {
			e.w.writeln(2, "COMMAND ", escape(cmd))
		}
		e.w.writeln(2, "WORKING_DIRECTORY ", e.workingDir())
		e.w.writeln(1, ")")
	}
}

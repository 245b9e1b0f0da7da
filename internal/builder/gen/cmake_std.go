package gen

import (
	"fmt"
	"strings"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/paths"
)

// UnrecognizedDialectError is returned for a C++ dialect with no known
// standard level.
type UnrecognizedDialectError struct {
	Dialect string
}

func (e *UnrecognizedDialectError) Error() string {
	return fmt.Sprintf("unrecognized C++ dialect %q", e.Dialect)
}

var standardLevels = map[string]string{
	"98": "98",
	"11": "11",
	"14": "14",
	"17": "17",
	"20": "20",
	"23": "23",
}

// cxxStandard maps a dialect such as "C++17" or "gnu++20" to its standard
// level and whether GNU extensions are enabled.
func cxxStandard(dialect string) (level string, extensions bool, err error) {
	lower := strings.ToLower(dialect)
	var version string
	switch {
	case strings.HasPrefix(lower, "gnu++"):
		version, extensions = strings.TrimPrefix(lower, "gnu++"), true
	case strings.HasPrefix(lower, "c++"):
		version = strings.TrimPrefix(lower, "c++")
	}
	level, ok := standardLevels[version]
	if !ok {
		return "", false, &UnrecognizedDialectError{Dialect: dialect}
	}
	return level, extensions, nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func (e *projectEmitter) standard(cfg *model.Config) error {
	if cfg.CppDialect == "" || cfg.CppDialect == "Default" {
		return nil
	}
	level, extensions, err := cxxStandard(cfg.CppDialect)
	if err != nil {
		return err
	}
	e.w.writeln(1, "set_target_properties(", e.target, " PROPERTIES")
	e.w.writeln(2, "CXX_STANDARD ", level)
	e.w.writeln(2, "CXX_STANDARD_REQUIRED YES")
	e.w.writeln(2, "CXX_EXTENSIONS ", yesNo(extensions))
	e.w.writeln(2, "POSITION_INDEPENDENT_CODE ", yesNo(cfg.PIC))
	e.w.writeln(2, "INTERPROCEDURAL_OPTIMIZATION ", yesNo(cfg.LTO))
	e.w.writeln(1, ")")
	return nil
}

// pchPath locates the precompiled header: the base directory first, then each
// include directory in order. A header found nowhere is taken as given.
func (e *projectEmitter) pchPath(cfg *model.Config) string {
	exists := e.g.FileExists
	if exists == nil {
		exists = fileExists
	}
	candidate := paths.Join(e.prj.BaseDir, cfg.PCHHeader)
	if exists(candidate) {
		return candidate
	}
	for _, dir := range cfg.IncludeDirs {
		p := paths.Join(paths.Join(e.prj.BaseDir, dir), cfg.PCHHeader)
		if exists(p) {
			return p
		}
	}
	return candidate
}

func (e *projectEmitter) pch(cfg *model.Config) {
	if cfg.NoPCH || cfg.PCHHeader == "" {
		return
	}
	// relative to the project, rooted so CMake does not take it relative to
	// the including workspace script
	p := e.style.Rel(e.prj.Location, e.pchPath(cfg))
	if !paths.IsAbs(p) {
		p = e.sourcePath(e.prj.Location) + "/" + p
	}
	e.w.writeln(1, "target_precompile_headers(", e.target, " PUBLIC ", quote(p), ")")
}

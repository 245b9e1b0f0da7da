package gen

import "github.com/qobs-build/qobsgen/internal/model"

// Generator renders build scripts for a target build system.
type Generator interface {
	// ProjectFile is the absolute path the project's script is written to.
	ProjectFile(prj *model.Project) string
	// Project renders the script of a single project. A nil script with a nil
	// error means the project produces nothing (utility or kindless projects).
	Project(prj *model.Project) ([]byte, error)
	// WorkspaceFile is the absolute path of the workspace's entry script.
	WorkspaceFile(wks *model.Workspace) string
	// Workspace renders the entry script referencing the given project scripts.
	Workspace(wks *model.Workspace, projects []*model.Project) ([]byte, error)
	// Generated reports whether an existing entry script was written by the
	// generator and may be replaced.
	Generated(data []byte) bool
}

var _ Generator = (*CMakeGen)(nil)

// qobsgen init [name]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/qobsgen/internal/builder"
	"github.com/qobs-build/qobsgen/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "qobsgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func workspaceManifest(name string, lib bool) string {
	kind := "ConsoleApp"
	files := `["src/**/*.cpp", "src/**/*.c"]`
	if lib {
		kind = "StaticLib"
		files = `["src/**/*.cpp", "src/**/*.c", "src/**/*.h"]`
	}
	return `[workspace]
name = "` + name + `"
configurations = ["Debug", "Release"]

[[project]]
name = "` + name + `"
kind = "` + kind + `"
files = ` + files + `

[project.settings]
cppdialect = "C++17"
targetdir = "bin/{{ configuration }}"

[project.settings.'configuration == "Debug"']
defines = ["DEBUG"]
symbols = true
optimize = "Off"

[project.settings.'configuration == "Release"']
defines = ["NDEBUG"]
optimize = "Speed"
`
}

// initIn initializes a workspace in an existing specified directory
func initIn(dir, name string, lib bool) {
	writefile(workspaceManifest(name, lib), dir, builder.WorkspaceFileName)

	mkdir(dir, "src")

	if lib {
		// src/hello_world.cpp
		writefile(`#include <cstdio>
#include "hello_world.h"

void hello_world() {
    std::puts("Hello, World!");
}
`, dir, "src", "hello_world.cpp")

		// src/hello_world.h
		writefile(`#pragma once

void hello_world();
`, dir, "src", "hello_world.h")
	} else {
		// src/main.cpp
		writefile(`#include <cstdio>

int main() {
    std::puts("Hello, World!");
    return 0;
}
`, dir, "src", "main.cpp")
	}

	// .gitignore
	writefile(`build/
bin/
`, dir, ".gitignore")

	created, err := builder.InitRepository(dir)
	if err != nil {
		msg.Warn("could not initialize a git repository: %v", err)
	} else if created {
		fmt.Printf("%s git repository in %s\n", color.HiGreenString("Initialized"), filepath.ToSlash(dir))
	}

	programName := getProgramName()
	fmt.Printf("You can now do %s to generate CMake scripts, then %s to build.\n",
		color.HiCyanString(programName+" "+dir), color.HiCyanString("cmake -B build "+dir))
}

var library bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new workspace in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new workspace in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), library)
	},
}

func init() {
	// qobsgen init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a library project")

	// qobsgen new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a library project")
}

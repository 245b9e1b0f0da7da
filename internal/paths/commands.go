package paths

import (
	"regexp"
	"strings"
)

var (
	posixCommands = strings.NewReplacer(
		"{CHDIR}", "cd",
		"{COPYFILE}", "cp -f",
		"{COPYDIR}", "cp -rf",
		"{COPY}", "cp -rf",
		"{DELETE}", "rm -rf",
		"{ECHO}", "echo",
		"{MKDIR}", "mkdir -p",
		"{MOVE}", "mv -f",
		"{RMDIR}", "rm -rf",
		"{TOUCH}", "touch",
	)
	windowsCommands = strings.NewReplacer(
		"{CHDIR}", "chdir",
		"{COPYFILE}", "copy /B /Y",
		"{COPYDIR}", "xcopy /Q /E /Y /I",
		"{COPY}", "xcopy /Q /E /Y /I",
		"{DELETE}", "del",
		"{ECHO}", "echo",
		"{MKDIR}", "mkdir",
		"{MOVE}", "move /Y",
		"{RMDIR}", "rmdir /S /Q",
		"{TOUCH}", "type nul >>",
	)
)

// pathMarker matches %[some/path] inside a command
var pathMarker = regexp.MustCompile(`%\[([^\]]+)\]`)

// Translator rewrites command tokens such as {ECHO} for a target system and
// rebases %[path] markers from BaseDir to Location.
type Translator struct {
	Style    Style
	System   string
	BaseDir  string
	Location string
}

// Command translates a single command string.
func (t Translator) Command(cmd string) string {
	cmd = pathMarker.ReplaceAllStringFunc(cmd, func(m string) string {
		p := pathMarker.FindStringSubmatch(m)[1]
		return t.Style.Rel(t.Location, Join(t.BaseDir, p))
	})
	if t.System == "windows" {
		return windowsCommands.Replace(cmd)
	}
	return posixCommands.Replace(cmd)
}

// Commands translates every command in cmds.
func (t Translator) Commands(cmds []string) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = t.Command(c)
	}
	return out
}

// Echo builds the translated echo command for a build message.
func (t Translator) Echo(message string) string {
	return t.Command("{ECHO} " + message)
}

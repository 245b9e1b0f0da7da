package gen

import (
	"bytes"
	"strings"
)

// writer buffers a script line by line, indenting with tabs.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) writeln(depth int, s ...string) {
	for range depth {
		w.buf.WriteByte('\t')
	}
	for _, str := range s {
		w.buf.WriteString(str)
	}
	w.buf.WriteByte('\n')
}

func (w *writer) bytes() []byte {
	return bytes.Clone(w.buf.Bytes())
}

var (
	quoteEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	commandEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, ";", `\;`)
	defineEscaper  = strings.NewReplacer(`\`, `\\`, `"`, `\"`, " ", `\ `, ";", `\;`, "(", `\(`, ")", `\)`, "#", `\#`)
)

// quote renders s as a quoted CMake argument.
func quote(s string) string { return `"` + quoteEscaper.Replace(s) + `"` }

// escape makes s safe to embed as unquoted CMake arguments, keeping spaces as
// argument separators. A bare ';' would split the argument as a list.
func escape(s string) string { return commandEscaper.Replace(s) }

// escapeDefine renders a preprocessor definition as a single unquoted argument.
func escapeDefine(s string) string { return defineEscaper.Replace(s) }

func quoteAll(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = quote(s)
	}
	return strings.Join(quoted, " ")
}

// isCFile reports whether name is compiled as C rather than C++.
func isCFile(name string) bool {
	return strings.HasSuffix(name, ".c") || strings.HasSuffix(name, ".m")
}

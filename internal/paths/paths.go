// Package paths relativizes and translates paths independent of the host's
// path conventions.
//
// A Style is an explicit value: every emission carries its own, so there is no
// process-wide separator to save and restore.
package paths

import (
	"path"
	"strings"
)

// Style controls how relative paths are rendered.
type Style struct {
	Sep byte
}

// Slash renders paths with forward slashes.
var Slash = Style{Sep: '/'}

// Backslash renders paths with Windows separators.
var Backslash = Style{Sep: '\\'}

// ToSlash converts any backslashes in p to forward slashes, regardless of the host OS.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// IsAbs reports whether p is absolute, either POSIX style or with a drive letter.
func IsAbs(p string) bool {
	p = ToSlash(p)
	return strings.HasPrefix(p, "/") || volume(p) != ""
}

func volume(p string) string {
	if len(p) >= 3 && p[1] == ':' && p[2] == '/' {
		c := p[0]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return strings.ToUpper(p[:2])
		}
	}
	return ""
}

// Join resolves p against base unless p is already absolute. The result uses forward slashes.
func Join(base, p string) string {
	p = ToSlash(p)
	if IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(ToSlash(base), p)
}

// Rel returns target relative to base. When no relative path exists (different
// volumes, or a relative target) target is returned cleaned.
func (s Style) Rel(base, target string) string {
	b := normVolume(path.Clean(ToSlash(base)))
	t := normVolume(path.Clean(ToSlash(target)))
	if !IsAbs(t) || !IsAbs(b) || volume(b) != volume(t) {
		return s.format(t)
	}
	if b == t {
		return "."
	}

	bparts := split(b)
	tparts := split(t)
	i := 0
	for i < len(bparts) && i < len(tparts) && bparts[i] == tparts[i] {
		i++
	}

	parts := make([]string, 0, len(bparts)-i+len(tparts)-i)
	for range bparts[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, tparts[i:]...)
	return s.format(strings.Join(parts, "/"))
}

func (s Style) format(p string) string {
	if s.Sep == 0 || s.Sep == '/' {
		return p
	}
	return strings.ReplaceAll(p, "/", string(s.Sep))
}

func normVolume(p string) string {
	if v := volume(p); v != "" {
		return v + p[2:]
	}
	return p
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

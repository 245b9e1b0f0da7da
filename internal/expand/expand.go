// Package expand evaluates `{{ expression }}` templates embedded in strings.
package expand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Has reports whether s contains at least one template expression.
func Has(s string) bool {
	return exprRegex.MatchString(s)
}

// String finds and evaluates all {{...}} expressions in s against env
func String(s string, env any) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprintf(&builder, "%v", result)
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// Strings expands every element of ss. The input slice is left untouched.
func Strings(ss []string, env any) ([]string, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		v, err := String(s, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Bool compiles and runs a boolean expression against env.
func Bool(expression string, env any) (bool, error) {
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("failed to compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to run expression %q: %w", expression, err)
	}
	matched, _ := result.(bool)
	return matched, nil
}

// Compiles reports whether expression is a valid expression over env.
func Compiles(expression string, env any) bool {
	_, err := expr.Compile(expression, expr.Env(env))
	return err == nil
}

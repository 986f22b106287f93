package prompt

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a named prompt with ${var} placeholders.
type Template struct {
	name string
	text string
	vars []string
}

// New parses text. The name appears in errors.
func New(name, text string) *Template {
	var vars []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(vars, m[1]) {
			vars = append(vars, m[1])
		}
	}
	return &Template{name: name, text: text, vars: vars}
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Text returns the unrendered text.
func (t *Template) Text() string { return t.text }

// Vars returns the placeholder names in order of first appearance.
func (t *Template) Vars() []string { return slices.Clone(t.vars) }

// Render substitutes every placeholder. It fails if any has no value.
func (t *Template) Render(vars map[string]any) (string, error) {
	var missing []string
	out := t.expand(vars, func(name, match string) string {
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", &UndefinedVariableError{Template: t.name, Names: missing}
	}
	return out, nil
}

// MustRender is Render for templates whose variables are known statically.
// It panics on a missing variable.
func (t *Template) MustRender(vars map[string]any) string {
	out, err := t.Render(vars)
	if err != nil {
		panic(err)
	}
	return out
}

// RenderLenient substitutes known placeholders and keeps the rest.
func (t *Template) RenderLenient(vars map[string]any) string {
	return t.expand(vars, func(_, match string) string { return match })
}

func (t *Template) expand(vars map[string]any, onMissing func(name, match string) string) string {
	if len(t.vars) == 0 {
		return t.text
	}
	return placeholder.ReplaceAllStringFunc(t.text, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := vars[name]; ok {
			return fmt.Sprint(v)
		}
		return onMissing(name, match)
	})
}

// Render is a one-off strict render of text.
func Render(text string, vars map[string]any) (string, error) {
	return New("inline", text).Render(vars)
}

// UndefinedVariableError lists placeholders that had no value.
type UndefinedVariableError struct {
	Template string
	Names    []string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("prompt %s: undefined variable(s): %s", e.Template, strings.Join(e.Names, ", "))
}

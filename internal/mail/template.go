// Package mail provides outbound email types, template retrieval and
// rendering. Delivery itself is a collaborator behind the Sender
// interface; this package never talks SMTP.
package mail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fasttemplate"
)

// TemplateSource retrieves raw template text by name. Templates
// contain placeholder markers of the form {{fieldName}}; retrieval
// and substitution are deliberately separate concerns.
type TemplateSource interface {
	Template(name string) (string, error)
}

// DirSource loads templates from .txt files in a directory.
type DirSource struct {
	Dir string
}

// Template reads <dir>/<name>.txt. The name is sanitized to its base
// so a caller cannot traverse out of the template directory.
func (d DirSource) Template(name string) (string, error) {
	name = filepath.Base(name)
	b, err := os.ReadFile(filepath.Join(d.Dir, name+".txt"))
	if err != nil {
		return "", fmt.Errorf("load template %q: %w", name, err)
	}
	return string(b), nil
}

// MapSource serves templates from memory. Used in tests and for the
// built-in fallback texts.
type MapSource map[string]string

// Template returns the named template or an error when absent.
func (m MapSource) Template(name string) (string, error) {
	t, ok := m[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return t, nil
}

// Render substitutes {{field}} markers in the template text with the
// given fields. It is a pure function: markers without a matching
// field render as empty, and no I/O happens here.
func Render(text string, fields map[string]string) string {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return fasttemplate.ExecuteString(text, "{{", "}}", m)
}

// Subject derives the subject line from a rendered template: the
// first non-empty line prefixed with "Subject:" is the subject, the
// remainder is the body. Templates without the prefix yield an empty
// subject and the full text as body.
func Subject(rendered string) (subject, body string) {
	lines := strings.SplitN(rendered, "\n", 2)
	if strings.HasPrefix(lines[0], "Subject:") {
		subject = strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
		if len(lines) == 2 {
			body = strings.TrimLeft(lines[1], "\n")
		}
		return subject, body
	}
	return "", rendered
}

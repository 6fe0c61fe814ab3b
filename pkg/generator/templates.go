package generator

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// Role and playbook templates. They are rendered with [[ ]] delimiters so
// that Ansible's Jinja expressions pass through untouched.
//
//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("winrole").
		Delims("[[", "]]").
		Funcs(template.FuncMap{"yq": yamlQuote}).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl"),
)

// yamlQuote renders s as a single-quoted YAML scalar.
func yamlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// render executes the named template.
func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

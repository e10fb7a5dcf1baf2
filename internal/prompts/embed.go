// Package prompts embeds the text/template sources for every pipeline
// stage and for the supervisor planner. Templates are parsed once at
// startup; a template that fails to parse is a programming error.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// FS holds the raw template files, one per stage ID.
//
//go:embed *.tmpl
var FS embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"trim": strings.TrimSpace,
}

// Load parses the template named "<name>.tmpl".
func Load(name string) (*template.Template, error) {
	data, err := FS.ReadFile(name + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("prompts: %s: %w", name, err)
	}
	t, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("prompts: parse %s: %w", name, err)
	}
	return t, nil
}

// MustLoad is like Load but panics on error. It is meant for package-level
// catalogs built from the embedded files.
func MustLoad(name string) *template.Template {
	t, err := Load(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Names lists the embedded template names without extension.
func Names() []string {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".tmpl"))
	}
	return names
}

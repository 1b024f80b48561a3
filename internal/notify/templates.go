package notify

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/sevigo/patch-warden/internal/core"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// Variant selects an alternative wording of the reply templates.
type Variant string

const DefaultVariant Variant = "default"

// TemplateData is what reply templates are rendered with.
type TemplateData struct {
	Decision core.Decision
	Reason   string
	State    core.State
	Title    string
	PatchID  int
	Branch   string
	URL      string
}

// TemplateManager holds the reply body templates keyed by target state.
type TemplateManager struct {
	templates map[core.State]map[Variant]*template.Template
}

// NewTemplateManager loads the embedded templates. File names follow
// "<state>_<variant>.tmpl".
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[core.State]map[Variant]*template.Template),
	}

	files, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		state, variant, ok := strings.Cut(baseName, "_")
		if !ok || state == "" || variant == "" {
			return nil, fmt.Errorf("invalid template filename format: %s (expected 'state_variant.tmpl')", fileName)
		}

		content, err := templateFiles.ReadFile("templates/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", fileName, err)
		}
		if err := tm.Register(core.State(state), Variant(variant), string(content)); err != nil {
			return nil, fmt.Errorf("failed to register template %s: %w", fileName, err)
		}
	}

	return tm, nil
}

// Register adds or replaces a template.
func (tm *TemplateManager) Register(state core.State, variant Variant, content string) error {
	tmpl, err := template.New(string(state) + "_" + string(variant)).Option("missingkey=error").Parse(content)
	if err != nil {
		return fmt.Errorf("could not parse template: %w", err)
	}
	if _, ok := tm.templates[state]; !ok {
		tm.templates[state] = make(map[Variant]*template.Template)
	}
	tm.templates[state][variant] = tmpl
	return nil
}

// Get returns the template for state, falling back to the default variant.
func (tm *TemplateManager) Get(state core.State, variant Variant) (*template.Template, error) {
	byVariant, ok := tm.templates[state]
	if !ok {
		return nil, fmt.Errorf("no reply template for state '%s'", state)
	}
	if tmpl, ok := byVariant[variant]; ok {
		return tmpl, nil
	}
	if tmpl, ok := byVariant[DefaultVariant]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("no reply template for state '%s' and variant '%s'", state, variant)
}

// Render executes the template for state.
func (tm *TemplateManager) Render(state core.State, variant Variant, data TemplateData) (string, error) {
	tmpl, err := tm.Get(state, variant)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

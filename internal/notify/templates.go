package notify

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ErrUnknownTemplate is returned when rendering a template that does not exist.
var ErrUnknownTemplate = errors.New("unknown email template")

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded email templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("email").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"formatTime":     formatTime,
			"formatInterval": formatInterval,
		}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Has reports whether a template called name exists.
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name+".html") != nil
}

// Render executes the template called name with data.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	t := r.templates.Lookup(name + ".html")
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", name, err)
	}
	return buf.String(), nil
}

func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatTime(*t)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// formatInterval turns a number of minutes into "2 hours", "1 day 30 minutes" etc.
func formatInterval(v any) string {
	minutes, ok := v.(int)
	if !ok {
		return fmt.Sprint(v)
	}
	if minutes <= 0 {
		return "now"
	}

	var parts []string
	for _, unit := range []struct {
		size int
		name string
	}{{1440, "day"}, {60, "hour"}, {1, "minute"}} {
		if n := minutes / unit.size; n > 0 {
			minutes -= n * unit.size
			if n == 1 {
				parts = append(parts, "1 "+unit.name)
			} else {
				parts = append(parts, fmt.Sprintf("%d %ss", n, unit.name))
			}
		}
	}
	return strings.Join(parts, " ")
}

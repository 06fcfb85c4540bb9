// Package files renders manifest templates into files owned by the target user.
package files

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
)

// TemplateData is the data every file template is executed against.
type TemplateData struct {
	User     string
	Home     string
	UID      int
	GID      int
	Hostname string
	Vars     map[string]string
	Flags    map[string]bool
}

// NewTemplateData collects template data from the compile context.
func NewTemplateData(ctx compiler.CompileContext, vars map[string]string) TemplateData {
	user := ctx.User()
	flags := make(map[string]bool, len(ctx.Manifest().Features))
	for _, f := range ctx.Manifest().Features {
		flags[f.Name] = ctx.FeatureEnabled(f.Name)
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return TemplateData{
		User:     user.Name,
		Home:     user.Home,
		UID:      user.UID,
		GID:      user.GID,
		Hostname: ctx.Hostname(),
		Vars:     vars,
		Flags:    flags,
	}
}

// Render executes a template with the sprig function map. A reference to a
// variable that does not exist is an error rather than an empty string.
func Render(name, text string, data TemplateData) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

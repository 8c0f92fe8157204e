package rendering

import (
	_ "embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/types"
)

var accentPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

//go:embed templates/resume.html.tmpl
var resumeTemplate string

var resumeTmpl = template.Must(template.New("resume").Funcs(template.FuncMap{
	"join": strings.Join,
	"meta": entryMeta,
}).Parse(resumeTemplate))

// Style controls the type scale and colors of the generated HTML.
type Style struct {
	Scale   float64
	Spacing float64
	Theme   types.ColorTheme
	// Print adds an @page rule so the document prints at the page size
	// with the page margins. Without it the body is exactly one content
	// column wide, which is what measurement needs.
	Print bool
}

// templateData represents the data structure passed to the HTML template
type templateData struct {
	Title    string
	CSS      template.CSS
	Sections []layout.Section
}

// RenderHTML renders the plan's sections with its chosen scale and spacing.
func RenderHTML(plan *layout.Plan) (string, error) {
	if plan == nil {
		return "", &TemplateError{Message: "plan is nil"}
	}
	return RenderSections(plan.Sections, plan.Page, Style{
		Scale:   plan.Scale,
		Spacing: plan.Spacing,
		Theme:   plan.Theme,
		Print:   true,
	})
}

// RenderSections renders sections as a standalone HTML document.
func RenderSections(sections []layout.Section, page layout.Page, style Style) (string, error) {
	if style.Scale <= 0 {
		style.Scale = 1
	}
	title := "Resume"
	if len(sections) > 0 && sections[0].Kind == layout.SectionHeader && sections[0].Name != "" {
		title = sections[0].Name + " - Resume"
	}

	var out strings.Builder
	err := resumeTmpl.Execute(&out, templateData{
		Title:    title,
		CSS:      template.CSS(stylesheet(page, style)),
		Sections: sections,
	})
	if err != nil {
		return "", &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return out.String(), nil
}

// stylesheet builds the CSS for a page and style. All sizes are in points so
// they line up with the layout engine's page model.
func stylesheet(page layout.Page, style Style) string {
	accent := style.Theme.Hex
	if !accentPattern.MatchString(accent) {
		accent = "#333333"
	}
	s := style.Scale

	var css strings.Builder
	if style.Print {
		fmt.Fprintf(&css, "@page{size:%.2fpt %.2fpt;margin:%.2fpt %.2fpt %.2fpt %.2fpt}",
			page.Width, page.Height, page.MarginTop, page.MarginRight, page.MarginBottom, page.MarginLeft)
	}
	fmt.Fprintf(&css, "*{box-sizing:border-box;margin:0;padding:0}")
	fmt.Fprintf(&css, "body{width:%.2fpt;font-family:Helvetica,Arial,sans-serif;color:#111;line-height:%.2f}",
		page.ContentWidth(), layout.LineHeight)
	fmt.Fprintf(&css, ".section{display:flow-root}")
	fmt.Fprintf(&css, ".section+.section{margin-top:%.2fpt}", style.Spacing)
	fmt.Fprintf(&css, ".name{font-size:%.2fpt;color:%s}", layout.NameFontSize*s, accent)
	fmt.Fprintf(&css, ".contact,.summary,.skills,.entry-title,.entry-meta,.entry-detail,li{font-size:%.2fpt}", layout.BodyFontSize*s)
	fmt.Fprintf(&css, ".heading{font-size:%.2fpt;color:%s;border-bottom:1px solid %s;text-transform:uppercase}",
		layout.HeadingFontSize*s, accent, accent)
	fmt.Fprintf(&css, ".entry-title{font-weight:bold}.entry-meta{color:#555}")
	fmt.Fprintf(&css, ".entry+.entry{margin-top:%.2fpt}", 4*s)
	fmt.Fprintf(&css, "ul{padding-left:%.2fpt}", 12*s)
	return css.String()
}

func entryMeta(e layout.Entry) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Organization, e.Location, e.Dates} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

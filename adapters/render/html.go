package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"

	"github.com/satriahrh/model-compare/domain"
)

//go:embed templates/page.html
var templates embed.FS

// Renderer turns a session snapshot into the comparison page. Output depends
// only on the snapshot.
type Renderer struct {
	page   *template.Template
	policy *bluemonday.Policy
}

func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templates, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{page: page, policy: bluemonday.UGCPolicy()}, nil
}

type pageView struct {
	Settings     domain.Settings
	ClearPending bool
	Columns      int
	Models       []domain.Model
	Turns        []turnView
}

type turnView struct {
	ID        string
	Content   string
	Responses []responseView
}

type responseView struct {
	Model string
	Label string
	Class string
	HTML  template.HTML
}

func (r *Renderer) Page(w io.Writer, state domain.SessionState) error {
	view := pageView{
		Settings:     state.Settings,
		ClearPending: state.ClearPending,
		Columns:      len(state.Models),
		Models:       state.Models,
		Turns:        make([]turnView, 0, len(state.Turns)),
	}
	if view.Columns == 0 {
		view.Columns = 1
	}
	for _, t := range state.Turns {
		tv := turnView{ID: t.ID, Content: t.Content}
		for _, resp := range t.Responses {
			tv.Responses = append(tv.Responses, responseView{
				Model: resp.Model,
				Label: resp.Label,
				Class: strings.ToLower(resp.Label),
				HTML:  r.Markdown(resp.Content),
			})
		}
		view.Turns = append(view.Turns, tv)
	}
	return r.page.Execute(w, view)
}

// PageBytes renders into memory so callers can hash the result.
func (r *Renderer) PageBytes(state domain.SessionState) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Page(&buf, state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown converts a model response to sanitized HTML.
func (r *Renderer) Markdown(s string) template.HTML {
	unsafe := blackfriday.MarkdownCommon([]byte(s))
	return template.HTML(r.policy.SanitizeBytes(unsafe))
}

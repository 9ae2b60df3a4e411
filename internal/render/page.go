package render

import (
	"html/template"
	"strings"

	"linkgate/internal/model"
)

// 终止页：过期或次数耗尽的统一 410 展示
var terminalTmpl = template.Must(template.New("terminal").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Link Expired</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { background: #f9fafb; color: #111827; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh; display: flex; align-items: center; justify-content: center; padding: 2rem; }
    .card { max-width: 420px; text-align: center; background: #fff; padding: 2.5rem; border-radius: 16px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
    .icon { font-size: 3rem; margin-bottom: 1rem; }
    h1 { font-size: 1.5rem; margin-bottom: 0.75rem; }
    p { color: #6b7280; line-height: 1.6; }
  </style>
</head>
<body>
  <div class="card">
    <div class="icon">410</div>
    <h1>Link Gone</h1>
    <p>{{.Reason}}</p>
  </div>
</body>
</html>`))

// TerminalPage 渲染终止页；clickLimitReached 区分耗尽与过期文案
func TerminalPage(clickLimitReached bool) string {
	reason := "This link has expired and is no longer available."
	if clickLimitReached {
		reason = "This link has reached its maximum number of uses."
	}

	var sb strings.Builder
	_ = terminalTmpl.Execute(&sb, struct{ Reason string }{Reason: reason})
	return sb.String()
}

type bioTheme struct {
	Bg     string
	Card   string
	Text   string
	Button string
}

var bioThemes = map[string]bioTheme{
	"light": {Bg: "#f9fafb", Card: "#ffffff", Text: "#111827", Button: "#2563eb"},
	"dark":  {Bg: "#111827", Card: "#1f2937", Text: "#f9fafb", Button: "#3b82f6"},
}

var bioTmpl = template.Must(template.New("bio").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { background-color: {{.Theme.Bg}}; color: {{.Theme.Text}};
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh; display: flex; justify-content: center; padding: 3rem 1rem; }
    .page { max-width: 480px; width: 100%; text-align: center; }
    h1 { font-size: 1.75rem; margin-bottom: 0.5rem; }
    .desc { opacity: 0.75; margin-bottom: 2rem; line-height: 1.6; }
    a.btn { display: block; background: {{.Theme.Card}}; color: {{.Theme.Text}};
      border: 1px solid {{.Theme.Button}}; text-decoration: none; padding: 1rem;
      border-radius: 12px; margin-bottom: 0.75rem; font-weight: 600; }
    a.btn:hover { background: {{.Theme.Button}}; color: #fff; }
  </style>
</head>
<body>
  <div class="page">
    <h1>{{.Title}}</h1>
    {{if .Description}}<p class="desc">{{.Description}}</p>{{end}}
    {{range .Buttons}}<a class="btn" href="{{.URL}}" rel="noopener">{{.Label}}</a>
    {{end}}
  </div>
</body>
</html>`))

// BioPage 渲染 bio 页；未知主题回退 light
func BioPage(page *model.PageContent) string {
	theme, ok := bioThemes[page.Theme]
	if !ok {
		theme = bioThemes["light"]
	}

	data := struct {
		Title       string
		Description string
		Buttons     []model.PageButton
		Theme       bioTheme
	}{
		Title:       page.Title,
		Description: page.Description,
		Buttons:     page.Buttons,
		Theme:       theme,
	}

	var sb strings.Builder
	_ = bioTmpl.Execute(&sb, data)
	return sb.String()
}

// Package templates holds the server-rendered dashboard shell. Everything
// data-dependent is patched in afterwards over datastar SSE.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// Page configures the dashboard shell.
type Page struct {
	Title   string
	TopN    int
	Horizon int
}

// signals is the initial client state. Its JSON keys match the filter
// parameters the SSE endpoints read back.
type signals struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Regions []string `json:"regions"`
	Top     int      `json:"top"`
	Horizon int      `json:"horizon"`
}

func Dashboard(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		initial, err := json.Marshal(signals{Regions: []string{}, Top: p.TopN, Horizon: p.Horizon})
		if err != nil {
			return err
		}
		title := templ.EscapeString(p.Title)

		_, err = fmt.Fprintf(w, dashboardHTML,
			title,
			datastarScript,
			templ.EscapeString(string(initial)),
			title,
		)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script type="module" src="%s"></script>
<style>
body{font-family:system-ui,-apple-system,sans-serif;margin:0;background:#f5f7fa;color:#1f2933}
header{background:#1f77b4;color:#fff;padding:1rem 2rem}
main{display:grid;grid-template-columns:260px 1fr;gap:1.5rem;padding:1.5rem 2rem}
aside,section{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.kpis{display:grid;grid-template-columns:repeat(5,1fr);gap:1rem}
.kpi{background:#f0f4f8;border-radius:6px;padding:.75rem;text-align:center}
.kpi strong{display:block;font-size:1.3rem}
.charts{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.charts img{width:100%%;border:1px solid #e4e7eb;border-radius:6px}
.warning{background:#fff4e5;border-left:4px solid #f0a202;padding:.75rem;margin-bottom:1rem}
table{border-collapse:collapse;width:100%%}
th,td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb;text-align:left}
label{display:block;margin:.5rem 0 .25rem}
</style>
</head>
<body data-signals="%s">
<header><h1>%s</h1></header>
<main>
<aside>
<h2>Filters</h2>
<div id="filters" data-on-load="@get('/sse/filters')">Loading filters…</div>
<button data-on-click="@get('/sse/dashboard')">Apply</button>
</aside>
<div>
<div id="status"></div>
<section><div id="kpis" data-on-load="@get('/sse/dashboard')"></div></section>
<section><div id="charts" class="charts"></div></section>
<section><h2>Forecast</h2><div id="forecast-table"></div></section>
<section><h2>Downloads</h2><div id="downloads"></div></section>
</div>
</main>
</body>
</html>
`

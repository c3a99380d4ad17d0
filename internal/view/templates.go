package view

import (
	"html/template"
	"strings"
	"unicode/utf8"
)

var tmplFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"pct":   Percent,
	"truncate": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		r := []rune(s)
		return strings.TrimSpace(string(r[:n])) + "…"
	},
	"kindIcon": func(kind string) string {
		switch kind {
		case "spike":
			return "▲"
		case "news":
			return "●"
		case "sentiment":
			return "◆"
		default:
			return "•"
		}
	},
}

const barTmpl = `{{define "bar"}}<div class="bar"><div class="fill" style="width: {{.}}%"></div><span class="value">{{.}}%</span></div>{{end}}`

func parse(name, body string) *template.Template {
	return template.Must(template.New(name).Funcs(tmplFuncs).Parse(barTmpl + body))
}

var healthTmpl = parse("health", `<div class="health health-{{.Class}}">
<span class="badge">{{.Status}}</span>
<span class="chunks">{{.Chunks}} chunks</span>
{{- if .Services}}
<ul class="services">{{range .Services}}<li class="svc svc-{{.Class}}">{{.Name}}: {{.Status}}</li>{{end}}</ul>
{{- end}}
</div>`)

var statsTmpl = parse("stats", `<dl class="stats">
<dt>Chunks</dt><dd>{{.Chunks}}</dd>
<dt>LLM</dt><dd>{{.LLMModel}}</dd>
{{- if .EmbedModel}}
<dt>Embeddings</dt><dd>{{.EmbedModel}}</dd>
{{- end}}
{{- if .Collection}}
<dt>Collection</dt><dd>{{.Collection}}</dd>
{{- end}}
</dl>`)

var marketTmpl = parse("market", `{{if .Quotes -}}
<div class="market-grid">
{{- range .Quotes}}
<div class="quote {{.Class}}"><span class="sym" title="{{.Symbol}}">{{.Display}}</span><span class="price">{{.Price}}</span><span class="chg">{{.Change}}</span></div>
{{- end}}
</div>
<div class="market-footer">{{.Fetched}} symbols{{if .Failed}}, {{.Failed}} failed{{end}}{{if .Updated}} · updated {{.Updated}}{{end}}</div>
{{- else -}}
<div class="empty">No market data available.</div>
{{- end}}`)

var alertsTmpl = parse("alerts", `{{if . -}}
<ul class="alerts">
{{- range .}}
<li class="alert alert-{{.Kind}}{{if .Severity}} sev-{{.Severity}}{{end}}"><span class="icon">{{kindIcon .Kind}}</span>{{if .Symbol}}<strong>{{.Symbol}}</strong> {{end}}<span class="msg">{{.Message}}</span> <time>{{.TimestampText}}</time></li>
{{- end}}
</ul>
{{- else -}}
<div class="empty">No recent alerts.</div>
{{- end}}`)

var feedTmpl = parse("feed", `{{if . -}}
{{range .}}<article class="feed-item sentiment-{{.SentimentLabel}}">
<h4>{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h4>
{{- if .BodyText}}
<p>{{truncate .BodyText 280}}</p>
{{- end}}
<div class="meta"><span class="source">{{.Source}}</span> · <time>{{.PublishedAt}}</time> · <span class="sentiment">{{.SentimentLabel}} {{printf "%.2f" .SentimentScore}}</span></div>
{{- if or .Entities .GeoTags .AssetClasses}}
<div class="tags">{{range .Entities}}<span class="tag entity">{{.}}</span>{{end}}{{range .GeoTags}}<span class="tag geo">{{.}}</span>{{end}}{{range .AssetClasses}}<span class="tag asset">{{.}}</span>{{end}}</div>
{{- end}}
</article>
{{end}}
{{- else -}}
<div class="empty">No news items.</div>
{{- end}}`)

var predictionsTmpl = parse("predictions", `<div class="pred-overall"><span class="label">Overall confidence</span>{{template "bar" .Confidence}}</div>
{{if .Cards -}}
<div class="pred-cards">
{{- range .Cards}}
<div class="pred-card dir-{{lower .Direction}}"><div class="asset">{{.Asset}}</div><div class="direction">{{.Direction}}</div>{{template "bar" .Confidence}}{{if .Reasoning}}<p>{{.Reasoning}}</p>{{end}}</div>
{{- end}}
</div>
{{- else -}}
<div class="empty">No predictions available.</div>
{{- end}}
{{- if .Parallels}}
<h4>Historical parallels</h4>
<ul class="parallels">{{range .Parallels}}<li><span class="week">{{.WeekLabel}}</span> <span class="sim">{{pct .Similarity}}</span>{{if .Summary}} <span class="summary">{{.Summary}}</span>{{end}}</li>{{end}}</ul>
{{- end}}
{{- if .Narrative}}
<div class="pred-text">{{.Narrative}}</div>
{{- end}}
{{- if .GeneratedAt}}
<div class="meta">Generated {{.GeneratedAt}}</div>
{{- end}}`)

var statusTmpl = parse("predictions_status", `<ul class="sources">
{{- range .Sources}}
<li class="{{if .Available}}ok{{else}}missing{{end}}">{{if .Available}}✓{{else}}✗{{end}} {{.Name}}{{if .Detail}} <span class="detail">({{.Detail}})</span>{{end}}</li>
{{- end}}
</ul>
<div class="counters">{{.TrainingPairs}} training pairs · {{.IndexedPatterns}} indexed patterns</div>`)

var chatTmpl = parse("chat", `{{if . -}}
{{range .}}<div class="turn turn-{{.Role}} status-{{.Status}}" id="turn-{{.ID}}">{{.Markup}}</div>
{{end}}
{{- else -}}
<div class="empty">Ask a question about today's markets.</div>
{{- end}}`)

var errorTmpl = parse("error", `<div class="panel-error">Failed to load {{.}}. Check if the API server is running.</div>`)

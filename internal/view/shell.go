package view

import (
	"html/template"
	"io"
)

// ShellPanel is one panel container on the page.
type ShellPanel struct {
	Name        string
	HTML        template.HTML
	Refreshable bool
}

// ShellTab is one tab with the panels it shows.
type ShellTab struct {
	Name    string
	Label   string
	Active  bool
	Panels  []ShellPanel
	Chat    bool
	Filters []string
}

// Shell is the full page.
type Shell struct {
	Title  string
	Header []ShellPanel
	Tabs   []ShellTab
}

// RenderShell writes the page with every panel's current fragment.
func RenderShell(w io.Writer, s Shell) error {
	return shellTmpl.Execute(w, s)
}

var shellTmpl = template.Must(template.New("shell").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
:root{--bg:#0f172a;--surface:#1e293b;--border:#334155;--text:#e2e8f0;--muted:#64748b;--accent:#3b82f6;--green:#22c55e;--yellow:#eab308;--red:#ef4444}
*{margin:0;padding:0;box-sizing:border-box}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:var(--bg);color:var(--text)}
header{display:flex;gap:16px;align-items:center;padding:10px 20px;background:var(--surface);border-bottom:1px solid var(--border)}
header h1{font-size:16px;flex:1}
nav{display:flex;padding:0 20px;border-bottom:1px solid var(--border)}
nav button{background:none;border:0;color:var(--muted);padding:8px 16px;cursor:pointer;border-bottom:2px solid transparent}
nav button.active{color:var(--accent);border-bottom-color:var(--accent)}
section.tab{display:none;padding:16px 20px}section.tab.active{display:block}
.panel{background:var(--surface);border:1px solid var(--border);border-radius:8px;padding:14px;margin-bottom:12px}
.panel h3{font-size:13px;color:var(--muted);margin-bottom:8px;display:flex;justify-content:space-between}
.market-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(150px,1fr));gap:8px}
.quote{display:flex;flex-direction:column;padding:8px;border:1px solid var(--border);border-radius:6px}
.quote.up .chg{color:var(--green)}.quote.down .chg{color:var(--red)}
.bar{position:relative;height:14px;background:var(--border);border-radius:7px;overflow:hidden}
.bar .fill{height:100%;background:var(--accent)}.bar .value{position:absolute;right:6px;top:0;font-size:10px}
.health-ok .badge{color:var(--green)}.health-degraded .badge{color:var(--yellow)}.health-down .badge{color:var(--red)}
.panel-error{color:var(--red)}.empty,.loading,.meta,.chat-meta{color:var(--muted);font-size:12px}
.turn{padding:8px;margin-bottom:8px;border-radius:6px}.turn-user{background:#1e3a5f}.turn-assistant{background:var(--surface)}
.chat-error{color:var(--red)}
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
{{range .Header}}<div id="panel-{{.Name}}" class="header-panel">{{.HTML}}</div>{{end}}
</header>
<nav>
{{range .Tabs}}<button data-tab="{{.Name}}"{{if .Active}} class="active"{{end}}>{{.Label}}</button>{{end}}
</nav>
{{range .Tabs}}
<section id="tab-{{.Name}}" class="tab{{if .Active}} active{{end}}">
{{- if .Filters}}
<select id="feed-category">{{range .Filters}}<option value="{{.}}">{{.}}</option>{{end}}</select>
{{- end}}
{{- range .Panels}}
<div class="panel"><h3>{{.Name}}{{if .Refreshable}}<button data-refresh="{{.Name}}">↻</button>{{end}}</h3><div id="panel-{{.Name}}">{{.HTML}}</div></div>
{{- end}}
{{- if .Chat}}
<div class="panel"><div id="panel-chat"></div>
<form id="ask"><input name="question" autocomplete="off" placeholder="Ask about the markets"><button>Send</button></form></div>
{{- end}}
</section>
{{end}}
<script>
(function(){
  function set(id, html){ var el = document.getElementById(id); if (el) { el.innerHTML = html; } }
  function connect(){
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function(ev){
      var u = JSON.parse(ev.data);
      if (u.panel) { set("panel-" + u.panel, u.html || ""); }
      if (u.tab) {
        var sec = document.getElementById("tab-" + u.tab);
        if (sec) { sec.classList.toggle("active", !!u.visible); }
        document.querySelectorAll("nav button[data-tab='" + u.tab + "']").forEach(function(b){ b.classList.toggle("active", !!u.visible); });
      }
    };
    ws.onclose = function(){ setTimeout(connect, 2000); };
  }
  document.querySelectorAll("nav button[data-tab]").forEach(function(b){
    b.addEventListener("click", function(){ fetch("/tabs/" + b.dataset.tab, {method: "POST"}); });
  });
  document.querySelectorAll("button[data-refresh]").forEach(function(b){
    b.addEventListener("click", function(){
      var q = "";
      var cat = document.getElementById("feed-category");
      if (b.dataset.refresh === "feed" && cat) { q = "?category=" + encodeURIComponent(cat.value); }
      fetch("/panels/" + b.dataset.refresh + "/refresh" + q, {method: "POST"});
    });
  });
  var cat = document.getElementById("feed-category");
  if (cat) { cat.addEventListener("change", function(){ fetch("/panels/feed/refresh?category=" + encodeURIComponent(cat.value), {method: "POST"}); }); }
  var form = document.getElementById("ask");
  if (form) {
    form.addEventListener("submit", function(ev){
      ev.preventDefault();
      var input = form.elements.question;
      fetch("/ask", {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify({question: input.value})})
        .then(function(r){ if (r.status === 202) { input.value = ""; } });
    });
  }
  fetch("/chat").then(function(r){ return r.text(); }).then(function(h){ set("panel-chat", h); });
  connect();
})();
</script>
</body>
</html>`))

package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/lightboard/internal/logic"
	"github.com/sweeney/lightboard/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"modeOrUnknown": func(e logic.EnsembleState) string {
		if e.Status == "" {
			return "UNKNOWN"
		}
		return e.Mode.String()
	},
	"modes": logic.Modes,
	"inc":   func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Lightboard</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.lit { color: #e6a800; font-weight: bold; }
.unlit { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
form { display: inline; }
</style>
</head>
<body>
<h1>Lightboard</h1>

<h2>Ensemble</h2>
<table>
<tr><th>Mode</th><td id="mode">{{modeOrUnknown .Ensemble}}</td></tr>
<tr><th>Display</th><td id="display">{{.Ensemble.Status}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
<tr><th>Tick</th><td>{{.Tick}}</td></tr>
</table>

<h2>Lights</h2>
<table>
<tr><th>Light</th><td>State</td><td>Lit</td><td>Transitions</td><td></td></tr>
{{range .Ensemble.Lights}}<tr>
<th>{{.Label}} (pin {{.Output}})</th>
<td>{{.Mode}}</td>
<td class="{{if .Lit}}lit{{else}}unlit{{end}}">{{if .Lit}}*{{else}}o{{end}}</td>
<td>{{.Transitions}}</td>
<td><form method="post" action="/api/lights/{{.Label}}/press"><button>press</button></form></td>
</tr>
{{end}}</table>

<p>
<form method="post" action="/api/selector"><button>next mode</button></form>
{{range modes}}<form method="post" action="/api/mode/{{.}}"><button>{{.}}</button></form>
{{end}}</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Press Counts</h2>
<table>
<tr><th>Selector</th><td>{{.Counts.Selector}}</td></tr>
{{range $i, $n := .Counts.Buttons}}<tr><th>Button {{inc $i}}</th><td>{{$n}}</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.ConfigFile}}<tr><th>Config</th><td>{{.Config.ConfigFile}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

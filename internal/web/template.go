package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	// opacity maps a brightness level to a CSS opacity.
	"opacity": func(b int) string {
		return fmt.Sprintf("%.2f", float64(b)/float64(display.MaxBrightness))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Beating Heart</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.grid { display: grid; grid-template-columns: repeat(5, 32px); gap: 6px; background: #111; padding: 10px; width: max-content; border-radius: 6px; }
.px { width: 32px; height: 32px; border-radius: 4px; background: #e0161b; }
.STEADY { color: green; }
.PANIC { color: red; font-weight: bold; }
.COOLDOWN { color: orange; }
.REST { color: #888; }
.DEATH { color: black; font-weight: bold; }
.UNKNOWN { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Beating Heart<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<div class="grid" id="grid">
{{range $r, $row := .Frame}}{{range $c, $b := $row}}<div class="px" id="px-{{$r}}-{{$c}}" style="opacity: {{opacity $b}}"></div>{{end}}
{{end}}</div>

<h2>Heart</h2>
<table>
<tr><th>Rate</th><td><span id="bpm">{{.Beat.BPM}}</span> bpm</td></tr>
<tr><th>State</th><td id="state" class="{{stateOrUnknown (printf "%s" .Beat.State)}}">{{stateOrUnknown (printf "%s" .Beat.State)}}</td></tr>
<tr><th>Interval</th><td>{{.Beat.IntervalMs}}ms (spent {{.Beat.SpendMs}}ms)</td></tr>
<tr><th>Sustained</th><td>{{if .Sustained}}{{.Sustained}} bpm{{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Beats</th><td id="beats">{{.Counts.Beats}}</td></tr>
<tr><th>Deaths</th><td>{{.Counts.Deaths}}</td></tr>
<tr><th>Panics</th><td>{{.Counts.Panics}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Baseline</th><td>{{.Config.BaselineBPM}} bpm</td></tr>
<tr><th>Panic level</th><td>{{.Config.PanicLevel}}</td></tr>
<tr><th>Input</th><td>{{.Config.Input}}</td></tr>
<tr><th>Report</th><td>{{if eq .Config.ReportMs 0}}disabled{{else}}{{.Config.ReportMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/frame.json">frame</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var bpmEl = document.getElementById("bpm");
  var stateEl = document.getElementById("state");
  var beatsEl = document.getElementById("beats");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function render(f) {
    for (var r = 0; r < f.rows.length; r++) {
      for (var c = 0; c < f.rows[r].length; c++) {
        document.getElementById("px-" + r + "-" + c).style.opacity = (f.rows[r][c] / 9).toFixed(2);
      }
    }
    bpmEl.textContent = f.bpm;
    stateEl.textContent = f.state;
    stateEl.className = f.state;
    beatsEl.textContent = f.beats;
  }

  var polling = null;
  function poll() {
    if (polling) return;
    setDot("err", "polling");
    polling = setInterval(function() {
      fetch("/frame.json").then(function(r) { return r.json(); }).then(render).catch(function() {});
    }, 200);
  }

  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/frame.ws");
  ws.onopen = function() { setDot("ok", "live"); };
  ws.onmessage = function(e) {
    try { render(JSON.parse(e.data)); } catch (err) {}
  };
  ws.onclose = poll;
  ws.onerror = poll;
})();
</script>
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

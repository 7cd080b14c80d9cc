package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/range-sensor/internal/logic"
	"github.com/sweeney/range-sensor/internal/status"
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
	"cm": func(d logic.Distance) string {
		return d.String() + " cm"
	},
	"below": func(d logic.Distance, threshold float32) bool {
		return float32(d) < threshold
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Range Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.near { color: green; font-weight: bold; }
.far { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Range Sensor</h1>

<h2>Reading</h2>
<table>
{{if .HaveValue}}<tr><th>Raw</th><td id="raw">{{cm .Raw}}</td></tr>
<tr><th>Filtered</th><td id="filtered" class="{{if below .Filtered .Config.ThresholdCm}}near{{else}}far{{end}}">{{cm .Filtered}}</td></tr>
<tr><th>Window</th><td>{{if .Filled}}full{{else}}filling{{end}} ({{.Config.Window}} samples)</td></tr>
{{else}}<tr><th>Raw</th><td class="unknown">no reading yet</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Peer</th><td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}attached{{else}}advertising{{end}}</td></tr>
<tr><th>Device</th><td>{{.Config.DeviceName}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Samples</th><td>{{.Counts.Samples}}</td></tr>
<tr><th>Sensor timeouts</th><td>{{.Counts.SensorTimeouts}}</td></tr>
<tr><th>Notifications</th><td>{{.Counts.Notifications}}</td></tr>
<tr><th>Notify errors</th><td>{{.Counts.NotifyErrors}}</td></tr>
<tr><th>Attaches</th><td>{{.Counts.Attaches}}</td></tr>
<tr><th>Detaches</th><td>{{.Counts.Detaches}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if not .LastNotify.IsZero}}<tr><th>Last notify</th><td>{{.LastNotify.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
<tr><th>Threshold</th><td>{{.Config.ThresholdCm}} cm</td></tr>
<tr><th>Notify interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Loop delay</th><td>{{.Config.LoopDelayMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/distance">distance</a></p>
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

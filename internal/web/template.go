package web

import (
	"html/template"
	"io"
	"log"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/screen-remote/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		return d.Truncate(time.Second).String()
	},
	"ago": func(t, now time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.RelTime(t, now, "ago", "from now")
	},
	"comma": func(n uint64) string {
		return humanize.Comma(int64(n))
	},
	"readyClass": func(ok bool) string {
		if ok {
			return "ok"
		}
		return "down"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Screen Remote</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.down { color: red; }
</style>
</head>
<body>
<h1>Screen Remote{{if .Config.Simulated}} (simulated){{end}}</h1>

<h2>Hardware</h2>
<table>
<tr><th>IR receiver</th><td class="{{readyClass .ReceiverReady}}">{{if .ReceiverReady}}ready{{else}}unavailable{{end}}</td></tr>
<tr><th>RF transmitter</th><td class="{{readyClass .TransmitterReady}}">{{if .TransmitterReady}}ready{{else}}unavailable{{end}}</td></tr>
<tr><th>Learned IR codes</th><td>{{.LearnedCodes}}</td></tr>
<tr><th>RF signal</th><td>{{if .RFSignal}}{{.RFSignal.Code}} (protocol {{.RFSignal.Protocol}}, {{.RFSignal.PulseLength}}us){{else}}not captured{{end}}</td></tr>
</table>

<h2>Activity</h2>
<table>
<tr><th>Last action</th><td>{{if .LastAction}}{{.LastAction}} ({{ago .LastActionAt .Now}}){{else}}none{{end}}</td></tr>
<tr><th>Last replay</th><td>{{ago .LastReplayAt .Now}}</td></tr>
{{range .ActionRows}}<tr><th>{{.Name}}</th><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>Receiver</h2>
<table>
<tr><th>Edges</th><td>{{comma .Receiver.Edges}}</td></tr>
<tr><th>Glitches</th><td>{{comma .Receiver.Glitches}}</td></tr>
<tr><th>Noise frames</th><td>{{comma .Receiver.Noise}}</td></tr>
<tr><th>Frames</th><td>{{comma .Receiver.Frames}}</td></tr>
<tr><th>Suppressed repeats</th><td>{{comma .Receiver.Suppressed}}</td></tr>
<tr><th>Unrecognized</th><td>{{comma .Receiver.Unrecognized}}</td></tr>
<tr><th>RF sent / failed</th><td>{{comma .Sent}} / {{comma .Failed}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{readyClass .MQTTConnected}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.Topic}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Glitch filter</th><td>{{.Config.GlitchFilterUs}}us</td></tr>
<tr><th>Frame timeout</th><td>{{.Config.TimeoutMs}}ms</td></tr>
<tr><th>Replay repeat</th><td>{{.Config.ReplayRepeat}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

type actionRow struct {
	Name  string
	Count int
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	rows := make([]actionRow, 0, len(snap.Actions))
	for name, n := range snap.Actions {
		rows = append(rows, actionRow{Name: name, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		ActionRows []actionRow
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		ActionRows: rows,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

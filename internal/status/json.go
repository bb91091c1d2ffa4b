package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Receiver      bool           `json:"ir_receiver"`
	Transmitter   bool           `json:"rf_transmitter"`
	LearnedCodes  int            `json:"learned_codes"`
	RFSignal      *SignalJSON    `json:"rf_signal,omitempty"`
	LastAction    *ActionJSON    `json:"last_action,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Actions       map[string]int `json:"actions"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// SignalJSON is the stored RF signal.
type SignalJSON struct {
	Code        uint64 `json:"code"`
	Protocol    int    `json:"protocol"`
	PulseLength int    `json:"pulse_length"`
}

// ActionJSON is the most recent recognized action.
type ActionJSON struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of pipeline and replay counters.
type CountsJSON struct {
	Edges        uint64 `json:"edges"`
	Glitches     uint64 `json:"glitches"`
	Noise        uint64 `json:"noise_frames"`
	Frames       uint64 `json:"frames"`
	Suppressed   uint64 `json:"suppressed"`
	Surfaced     uint64 `json:"surfaced"`
	Unrecognized uint64 `json:"unrecognized"`
	Sent         uint64 `json:"rf_sent"`
	Failed       uint64 `json:"rf_failed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	DebounceMs     int64  `json:"debounce_ms"`
	GlitchFilterUs int64  `json:"glitch_filter_us"`
	TimeoutMs      int64  `json:"timeout_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	ReplayRepeat   int    `json:"replay_repeat"`
	Broker         string `json:"broker"`
	Topic          string `json:"topic"`
	HTTPPort       string `json:"http_port"`
	Simulated      bool   `json:"simulated,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	actions := snap.Actions
	if actions == nil {
		actions = map[string]int{}
	}
	inner := StatusInner{
		Receiver:      snap.ReceiverReady,
		Transmitter:   snap.TransmitterReady,
		LearnedCodes:  snap.LearnedCodes,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Edges:        snap.Receiver.Edges,
			Glitches:     snap.Receiver.Glitches,
			Noise:        snap.Receiver.Noise,
			Frames:       snap.Receiver.Frames,
			Suppressed:   snap.Receiver.Suppressed,
			Surfaced:     snap.Receiver.Surfaced,
			Unrecognized: snap.Receiver.Unrecognized,
			Sent:         snap.Sent,
			Failed:       snap.Failed,
		},
		Actions: actions,
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			DebounceMs:     snap.Config.DebounceMs,
			GlitchFilterUs: snap.Config.GlitchFilterUs,
			TimeoutMs:      snap.Config.TimeoutMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			ReplayRepeat:   snap.Config.ReplayRepeat,
			Broker:         snap.Config.Broker,
			Topic:          snap.Config.Topic,
			HTTPPort:       snap.Config.HTTPPort,
			Simulated:      snap.Config.Simulated,
		},
	}
	if snap.RFSignal != nil {
		inner.RFSignal = &SignalJSON{
			Code:        snap.RFSignal.Code,
			Protocol:    snap.RFSignal.Protocol,
			PulseLength: snap.RFSignal.PulseLength,
		}
	}
	if snap.LastAction != "" {
		inner.LastAction = &ActionJSON{
			Action:    snap.LastAction,
			Timestamp: snap.LastActionAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

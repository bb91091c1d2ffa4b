// Package status provides a thread-safe status tracker for the screen-remote
// daemon. It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/screen-remote/internal/receiver"
	"github.com/sweeney/screen-remote/internal/rcswitch"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	DebounceMs     int64
	GlitchFilterUs int64
	TimeoutMs      int64
	HeartbeatMs    int64
	ReplayRepeat   int
	Broker         string
	Topic          string
	HTTPPort       string
	Simulated      bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	ReceiverReady    bool
	TransmitterReady bool
	LearnedCodes     int
	RFSignal         *rcswitch.Signal

	LastAction   string
	LastActionAt time.Time
	Actions      map[string]int

	LastReplayAt time.Time
	Sent         uint64
	Failed       uint64

	Receiver receiver.Counts

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TotalActions returns the number of recognized actions.
func (s Snapshot) TotalActions() int {
	n := 0
	for _, c := range s.Actions {
		n += c
	}
	return n
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Actions:   make(map[string]int),
		},
	}
}

// SetHardware records which halves of the radio hardware came up.
func (t *Tracker) SetHardware(receiverReady, transmitterReady bool) {
	t.mu.Lock()
	t.snap.ReceiverReady = receiverReady
	t.snap.TransmitterReady = transmitterReady
	t.mu.Unlock()
}

// SetCodes records the number of learned IR codes and the stored RF signal.
func (t *Tracker) SetCodes(learned int, sig *rcswitch.Signal) {
	t.mu.Lock()
	t.snap.LearnedCodes = learned
	if sig != nil {
		s := *sig
		t.snap.RFSignal = &s
	} else {
		t.snap.RFSignal = nil
	}
	t.mu.Unlock()
}

// RecordAction counts a recognized action.
func (t *Tracker) RecordAction(action string, at time.Time) {
	t.mu.Lock()
	t.snap.LastAction = action
	t.snap.LastActionAt = at
	t.snap.Actions[action]++
	t.mu.Unlock()
}

// RecordReplay records a completed replay and the transmitter totals.
func (t *Tracker) RecordReplay(at time.Time, sent, failed uint64) {
	t.mu.Lock()
	t.snap.LastReplayAt = at
	t.snap.Sent = sent
	t.snap.Failed = failed
	t.mu.Unlock()
}

// SetReceiverCounts stores the latest receiver pipeline counters.
// Called from runLoop on every tick.
func (t *Tracker) SetReceiverCounts(c receiver.Counts) {
	t.mu.Lock()
	t.snap.Receiver = c
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Actions = make(map[string]int, len(t.snap.Actions))
	for k, v := range t.snap.Actions {
		s.Actions[k] = v
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

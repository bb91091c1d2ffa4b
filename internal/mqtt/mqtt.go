// Package mqtt publishes remote control events and receives commands, with
// an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultPrefix is the topic prefix when none is configured.
const DefaultPrefix = "home/cinema/screen"

// Topics holds the topics derived from one prefix.
type Topics struct {
	Events  string // recognized actions and replays
	System  string // lifecycle events, retained
	Command string // inbound commands
}

// NewTopics derives the topic set from prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Events:  prefix + "/events",
		System:  prefix + "/system",
		Command: prefix + "/command",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a remote event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSource delivers commands received from the broker.
type CommandSource interface {
	Commands() <-chan Command
}

// Event types published on the events topic.
const (
	EventAction = "ACTION"
	EventReplay = "REPLAY"
)

// Event is a remote control event: a recognized IR button or an RF replay.
type Event struct {
	Timestamp   time.Time
	Type        string // EventAction or EventReplay
	Action      string // IR action name or the command that caused a replay
	Fingerprint uint32 // IR fingerprint, zero for replays
	Code        uint64 // RF code, zero for actions
	Repeat      int    // RF transmissions, zero for actions
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Remote RemotePayload `json:"remote"`
}

// RemotePayload contains the event details.
type RemotePayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Action      string `json:"action"`
	Fingerprint uint32 `json:"fingerprint,omitempty"`
	Code        uint64 `json:"code,omitempty"`
	Repeat      int    `json:"repeat,omitempty"`
}

// FormatPayload creates the JSON payload for a remote event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Remote: RemotePayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       event.Type,
			Action:      event.Action,
			Fingerprint: event.Fingerprint,
			Code:        event.Code,
			Repeat:      event.Repeat,
		},
	}
	return json.Marshal(payload)
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Commands accepted on the command topic.
const (
	CommandScreenUp = "screen_up"
)

// Command is one inbound instruction.
type Command struct {
	Name     string    `json:"command"`
	Repeat   int       `json:"repeat,omitempty"`
	Received time.Time `json:"-"`
}

// ErrUnknownCommand is returned by ParseCommand for unsupported names.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand decodes a command payload such as {"command":"screen_up"}.
// A bare command name is accepted too.
func ParseCommand(payload []byte, now time.Time) (Command, error) {
	var cmd Command
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &cmd); err != nil {
			return Command{}, fmt.Errorf("parse command: %w", err)
		}
	} else {
		cmd.Name = trimmed
	}
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
	cmd.Received = now

	switch cmd.Name {
	case CommandScreenUp:
		return cmd, nil
	default:
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Name)
	}
}

// Package config loads and saves the controller's settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/logic"
	"github.com/sweeney/screen-remote/internal/rcswitch"
	"github.com/sweeney/screen-remote/internal/replay"
)

// Config is the complete settings file.
type Config struct {
	GPIO      GPIOConfig         `yaml:"gpio"`
	Receiver  ReceiverConfig     `yaml:"receiver"`
	IRCodes   map[string]*uint32 `yaml:"ir_codes"`
	RFSignal  *rcswitch.Signal   `yaml:"rf_signal"`
	Replay    ReplayConfig       `yaml:"replay"`
	MQTT      MQTTConfig         `yaml:"mqtt"`
	HTTP      string             `yaml:"http"`
	Heartbeat time.Duration      `yaml:"heartbeat"`
}

// GPIOConfig names the chip and line offsets.
type GPIOConfig struct {
	Chip    string `yaml:"chip"`
	IRPin   int    `yaml:"ir_pin"`
	RFRxPin int    `yaml:"rf_rx_pin"`
	RFTxPin int    `yaml:"rf_tx_pin"`
}

// ReceiverConfig holds IR pipeline timings.
type ReceiverConfig struct {
	GlitchFilterUS int `yaml:"glitch_filter_us"`
	TimeoutMS      int `yaml:"timeout_ms"`
	DebounceMS     int `yaml:"debounce_ms"`
	PollMS         int `yaml:"poll_ms"`
}

// GlitchFilter returns the glitch filter width.
func (r ReceiverConfig) GlitchFilter() time.Duration {
	return time.Duration(r.GlitchFilterUS) * time.Microsecond
}

// Timeout returns the idle timeout that ends a frame.
func (r ReceiverConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Debounce returns the repeat suppression window.
func (r ReceiverConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMS) * time.Millisecond
}

// Poll returns the action poll interval.
func (r ReceiverConfig) Poll() time.Duration {
	return time.Duration(r.PollMS) * time.Millisecond
}

// ReplayConfig controls RF replay.
type ReplayConfig struct {
	Repeat int `yaml:"repeat"`
}

// MQTTConfig names the broker and topic prefix.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// Defaults.
const (
	DefaultFile      = "config.yaml"
	DefaultBroker    = "tcp://192.168.1.200:1883"
	DefaultTopic     = "home/cinema/screen"
	DefaultHTTP      = ":80"
	DefaultHeartbeat = 15 * time.Minute
	DefaultPollMS    = 10
)

// Default returns a Config with every field set to its default and no
// learned codes.
func Default() *Config {
	codes := make(map[string]*uint32, len(codebook.DefaultActions))
	for _, a := range codebook.DefaultActions {
		codes[a] = nil
	}
	return &Config{
		GPIO: GPIOConfig{
			Chip:    gpio.DefaultChip,
			IRPin:   gpio.DefaultPinIR,
			RFRxPin: gpio.DefaultPinRFRx,
			RFTxPin: gpio.DefaultPinRFTx,
		},
		Receiver: ReceiverConfig{
			GlitchFilterUS: int(logic.DefaultGlitchFilter / time.Microsecond),
			TimeoutMS:      int(logic.DefaultIdleTimeout / time.Millisecond),
			DebounceMS:     int(logic.DefaultDebounce / time.Millisecond),
			PollMS:         DefaultPollMS,
		},
		IRCodes:   codes,
		Replay:    ReplayConfig{Repeat: replay.DefaultRepeat},
		MQTT:      MQTTConfig{Broker: DefaultBroker, Topic: DefaultTopic},
		HTTP:      DefaultHTTP,
		Heartbeat: DefaultHeartbeat,
	}
}

// Load reads a YAML settings file over the defaults. JSON files parse as
// well. A missing file is an error; use LoadOrDefault to tolerate it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, returning Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) normalize() {
	d := Default()
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = d.GPIO.Chip
	}
	if c.Receiver.TimeoutMS <= 0 {
		c.Receiver.TimeoutMS = d.Receiver.TimeoutMS
	}
	if c.Receiver.PollMS <= 0 {
		c.Receiver.PollMS = d.Receiver.PollMS
	}
	if c.Replay.Repeat <= 0 {
		c.Replay.Repeat = d.Replay.Repeat
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = d.Heartbeat
	}
	if c.IRCodes == nil {
		c.IRCodes = d.IRCodes
	}
	c.MQTT.Topic = strings.TrimSuffix(c.MQTT.Topic, "/")
	if c.RFSignal != nil {
		if c.RFSignal.IsZero() {
			c.RFSignal = nil
		} else {
			sig := c.RFSignal.Normalize()
			c.RFSignal = &sig
		}
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []string
	if c.Receiver.GlitchFilterUS < 0 {
		errs = append(errs, "receiver.glitch_filter_us must not be negative")
	}
	if c.Receiver.DebounceMS < 0 {
		errs = append(errs, "receiver.debounce_ms must not be negative")
	}
	pins := map[int]string{}
	for name, pin := range map[string]int{"ir_pin": c.GPIO.IRPin, "rf_rx_pin": c.GPIO.RFRxPin, "rf_tx_pin": c.GPIO.RFTxPin} {
		if pin < 0 {
			errs = append(errs, fmt.Sprintf("gpio.%s must not be negative", name))
		}
		if other, ok := pins[pin]; ok {
			first, second := other, name
			if second < first {
				first, second = second, first
			}
			errs = append(errs, fmt.Sprintf("gpio.%s and gpio.%s share pin %d", first, second, pin))
		}
		pins[pin] = name
	}
	if c.RFSignal != nil {
		if _, err := rcswitch.LookupProtocol(c.RFSignal.Protocol); err != nil {
			errs = append(errs, fmt.Sprintf("rf_signal: %v", err))
		}
	}
	if c.MQTT.Broker != "" && !strings.Contains(c.MQTT.Broker, "://") {
		errs = append(errs, fmt.Sprintf("mqtt.broker %q must include a scheme", c.MQTT.Broker))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Save writes the config to path, replacing it atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Book builds a code book from the learned IR codes.
func (c *Config) Book() *codebook.Book {
	return codebook.FromCodes(c.IRCodes)
}

// SetBook stores the book's codes, keeping an entry for every known
// action.
func (c *Config) SetBook(b *codebook.Book) {
	names := make([]string, 0, len(c.IRCodes))
	for name := range c.IRCodes {
		names = append(names, name)
	}
	c.IRCodes = b.Codes(names...)
}

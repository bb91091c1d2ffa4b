package main

import (
	"log"

	"github.com/sweeney/screen-remote/internal/config"
	"github.com/sweeney/screen-remote/internal/gpio"
	"github.com/sweeney/screen-remote/internal/mqtt"
	"github.com/sweeney/screen-remote/internal/receiver"
)

// backend selects hardware or simulated GPIO.
type backend struct {
	chip      string
	simulated bool
	watcher   gpio.Watcher
}

func newBackend(chip string, simulate bool) *backend {
	if simulate {
		log.Printf("gpio: using simulated backend")
		return &backend{simulated: true, watcher: gpio.NewFakeWatcher()}
	}
	return &backend{chip: chip, watcher: gpio.NewRealWatcher(chip)}
}

func (b *backend) emitter(offset int) (gpio.Emitter, error) {
	if b.simulated {
		return gpio.NewFakeEmitter(), nil
	}
	return gpio.NewRealEmitter(b.chip, offset)
}

func receiverConfig(cfg *config.Config) receiver.Config {
	return receiver.Config{
		Offset:       cfg.GPIO.IRPin,
		GlitchFilter: cfg.Receiver.GlitchFilter(),
		IdleTimeout:  cfg.Receiver.Timeout(),
		Debounce:     cfg.Receiver.Debounce(),
	}
}

// link is the MQTT surface the daemon needs.
type link interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
	mqtt.CommandSource
}

// offline stands in for MQTT when no broker is configured or the broker
// rejects the connection.
type offline struct{}

func (offline) Publish(mqtt.Event) error { return nil }
func (offline) PublishSystem(mqtt.SystemEvent) error { return nil }
func (offline) Close() error { return nil }
func (offline) IsConnected() bool { return false }
func (offline) Commands() <-chan mqtt.Command { return nil }

func connectMQTT(broker, topic string) link {
	if broker == "" {
		log.Printf("mqtt: no broker configured, publishing disabled")
		return offline{}
	}
	p, err := mqtt.NewRealPublisher(broker, topic)
	if err != nil {
		log.Printf("mqtt: %v, publishing disabled", err)
		return offline{}
	}
	return p
}

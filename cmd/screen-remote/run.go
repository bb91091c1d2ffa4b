package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/metrics"
	"github.com/sweeney/screen-remote/internal/mqtt"
	"github.com/sweeney/screen-remote/internal/rcswitch"
	"github.com/sweeney/screen-remote/internal/receiver"
	"github.com/sweeney/screen-remote/internal/replay"
	"github.com/sweeney/screen-remote/internal/status"
	"github.com/sweeney/screen-remote/internal/web"
)

// actionSource is the part of the IR receiver the poll loop uses.
type actionSource interface {
	Check() (string, bool)
	Counts() receiver.Counts
}

// daemon holds everything the poll loop touches. receiver is nil when the
// IR line could not be claimed; sender is nil when RF replay is disabled.
type daemon struct {
	receiver actionSource
	book     *codebook.Book

	sender *replay.Sender
	signal rcswitch.Signal
	repeat int

	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	commands   <-chan mqtt.Command

	tracker   *status.Tracker
	metrics   *metrics.Metrics
	heartbeat time.Duration
}

func runDaemon(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	simulate := c.Bool("simulate")
	hw := newBackend(cfg.GPIO.Chip, simulate)
	m := metrics.New()
	book := cfg.Book()

	d := &daemon{
		book:      book,
		repeat:    cfg.Replay.Repeat,
		metrics:   m,
		heartbeat: cfg.Heartbeat,
	}

	rx, err := receiver.New(hw.watcher, receiverConfig(cfg), book)
	if err != nil {
		log.Printf("ir receiver unavailable, continuing without it: %v", err)
	} else {
		defer rx.Close()
		d.receiver = rx
		m.WatchReceiver(rx.Counts)
		log.Printf("ir receiver ready on line %d with %d learned codes", cfg.GPIO.IRPin, book.Len())
	}

	if cfg.RFSignal == nil {
		log.Printf("replay: no rf_signal captured, replay disabled")
	} else if em, err := hw.emitter(cfg.GPIO.RFTxPin); err != nil {
		log.Printf("replay: rf transmitter unavailable, replay disabled: %v", err)
	} else {
		defer em.Close()
		d.sender = replay.NewSender(rcswitch.NewTransmitter(em))
		d.sender.OnTransmit = m.Transmission
		d.signal = *cfg.RFSignal
		log.Printf("replay: ready with %s", d.signal)
	}

	remote := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.Topic)
	defer remote.Close()
	d.publisher = remote
	d.mqttStatus = remote
	d.commands = remote.Commands()

	// Tracker exists before STARTUP so the snapshot is available.
	d.tracker = status.NewTracker(time.Now(), status.Config{
		PollMs:         cfg.Receiver.Poll().Milliseconds(),
		DebounceMs:     cfg.Receiver.Debounce().Milliseconds(),
		GlitchFilterUs: cfg.Receiver.GlitchFilter().Microseconds(),
		TimeoutMs:      cfg.Receiver.Timeout().Milliseconds(),
		HeartbeatMs:    cfg.Heartbeat.Milliseconds(),
		ReplayRepeat:   cfg.Replay.Repeat,
		Broker:         cfg.MQTT.Broker,
		Topic:          cfg.MQTT.Topic,
		HTTPPort:       cfg.HTTP,
		Simulated:      simulate,
	})
	d.tracker.SetHardware(d.receiver != nil, d.sender != nil)
	d.tracker.SetCodes(book.Len(), cfg.RFSignal)
	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}

	if err := d.publisher.PublishSystem(d.systemEvent(time.Now(), "STARTUP", "", true)); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, d.tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: %s", summarize(cfg))

	ticker := time.NewTicker(cfg.Receiver.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.runLoop(time.Now, ticker.C, sigCh)
}

func (d *daemon) runLoop(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			reason := signalName(s)
			if err := d.publisher.PublishSystem(d.systemEvent(now(), "SHUTDOWN", reason, true)); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-d.commands:
			d.handleCommand(now(), cmd)

		case <-tick:
			t := now()
			d.poll(t)

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				hb := d.systemEvent(t, "HEARTBEAT", "", false)
				snap := d.tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v actions=%d sent=%d failed=%d",
					snap.Uptime().Truncate(time.Second), snap.TotalActions(), snap.Sent, snap.Failed)
				if err := d.publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			d.refresh()
		}
	}
}

// poll drains the receiver mailbox once.
func (d *daemon) poll(t time.Time) {
	if d.receiver == nil {
		return
	}
	action, ok := d.receiver.Check()
	if !ok {
		return
	}
	log.Printf("action: %s", action)
	d.metrics.Action(action)
	d.tracker.RecordAction(action, t)

	event := mqtt.Event{Timestamp: t, Type: mqtt.EventAction, Action: action}
	if fp, ok := d.book.Fingerprint(action); ok {
		event.Fingerprint = uint32(fp)
	}
	d.publish(event)
}

func (d *daemon) handleCommand(t time.Time, cmd mqtt.Command) {
	log.Printf("command: %s", cmd.Name)
	d.metrics.Command(cmd.Name)

	switch cmd.Name {
	case mqtt.CommandScreenUp:
		d.replay(t, cmd)
	default:
		log.Printf("command: ignoring %q", cmd.Name)
	}
}

func (d *daemon) replay(t time.Time, cmd mqtt.Command) {
	if d.sender == nil {
		log.Printf("replay: rf disabled, ignoring %s", cmd.Name)
		return
	}
	repeat := cmd.Repeat
	if repeat <= 0 {
		repeat = d.repeat
	}
	d.sender.Send(d.signal, repeat)
	d.tracker.RecordReplay(t, d.sender.Sent(), d.sender.Failed())
	log.Printf("replay: sent %s x%d", d.signal, repeat)

	d.publish(mqtt.Event{
		Timestamp: t,
		Type:      mqtt.EventReplay,
		Action:    cmd.Name,
		Code:      d.signal.Code,
		Repeat:    repeat,
	})
}

func (d *daemon) publish(event mqtt.Event) {
	if err := d.publisher.Publish(event); err != nil {
		d.metrics.PublishError()
		log.Printf("publish error: %v", err)
	}
}

// refresh copies live counters into the tracker for HTTP consumers.
func (d *daemon) refresh() {
	if d.receiver != nil {
		d.tracker.SetReceiverCounts(d.receiver.Counts())
	}
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// systemEvent builds a lifecycle event carrying a full status snapshot.
func (d *daemon) systemEvent(t time.Time, event, reason string, retained bool) mqtt.SystemEvent {
	d.refresh()
	return mqtt.SystemEvent{
		Timestamp:  t,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(d.tracker.Snapshot(), event, reason),
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

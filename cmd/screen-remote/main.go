// Command screen-remote recognizes IR remote buttons, learns IR and RF
// codes, and replays the captured RF code that raises the cinema screen.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/config"
	"github.com/sweeney/screen-remote/internal/replay"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "screen-remote",
		Usage: "IR remote decoder and RF screen replay for the cinema room",
		UsageText: "screen-remote [--config <file>] [--simulate] <command>" +
			"\n\nEXAMPLE:" +
			"\n\tlearn the remote, capture the screen code, then run the daemon" +
			"\n\t\tscreen-remote learn" +
			"\n\t\tscreen-remote capture --duration 20s" +
			"\n\t\tscreen-remote run",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultFile, Usage: "load settings from `FILE`"},
			&cli.BoolFlag{Name: "simulate", Usage: "use the simulated GPIO backend instead of hardware"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker `URL` (overrides mqtt.broker)"},
			&cli.StringFlag{Name: "http", Usage: "HTTP status `ADDR` (overrides http, \"off\" disables)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "decode IR actions, publish them and replay RF on command",
				Action: runDaemon,
			},
			{
				Name:  "learn",
				Usage: "learn IR buttons into ir_codes",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "buttons", Aliases: []string{"b"}, Value: cli.NewStringSlice(codebook.DefaultActions...), Usage: "buttons to learn, in order"},
				},
				Action: learnButtons,
			},
			{
				Name:  "capture",
				Usage: "capture the RF remote into rf_signal",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "stop after `DURATION` (default: until interrupted)"},
				},
				Action: captureRF,
			},
			{
				Name:  "send",
				Usage: "replay the stored rf_signal",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "repeat", Aliases: []string{"n"}, Value: replay.DefaultRepeat, Usage: "number of transmissions"},
				},
				Action: sendRF,
			},
		},
		Action: runDaemon,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

// loadConfig reads the settings file named by --config and applies the
// global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, path, err
	}
	if b := c.String("broker"); b != "" {
		cfg.MQTT.Broker = b
	}
	if h := c.String("http"); h != "" {
		if h == "off" {
			h = ""
		}
		cfg.HTTP = h
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("flags: %w", err)
	}
	return cfg, path, nil
}

func summarize(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ir_pin=%d rf_rx_pin=%d rf_tx_pin=%d", cfg.GPIO.IRPin, cfg.GPIO.RFRxPin, cfg.GPIO.RFTxPin)
	fmt.Fprintf(&b, " poll=%v debounce=%v", cfg.Receiver.Poll(), cfg.Receiver.Debounce())
	fmt.Fprintf(&b, " broker=%s heartbeat=%v", cfg.MQTT.Broker, cfg.Heartbeat.Truncate(time.Second))
	return b.String()
}

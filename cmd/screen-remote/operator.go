package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/screen-remote/internal/capture"
	"github.com/sweeney/screen-remote/internal/codebook"
	"github.com/sweeney/screen-remote/internal/config"
	"github.com/sweeney/screen-remote/internal/rcswitch"
	"github.com/sweeney/screen-remote/internal/receiver"
	"github.com/sweeney/screen-remote/internal/replay"
)

func learnButtons(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	hw := newBackend(cfg.GPIO.Chip, c.Bool("simulate"))
	book := cfg.Book()

	rx, err := receiver.New(hw.watcher, receiverConfig(cfg), book)
	if err != nil {
		return fmt.Errorf("init ir receiver: %w", err)
	}
	defer rx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buttons := c.StringSlice("buttons")
	if err := learn(ctx, codebook.NewLearner(rx, book), buttons); err != nil {
		return err
	}

	for _, b := range buttons {
		if _, ok := cfg.IRCodes[b]; !ok {
			cfg.IRCodes[b] = nil
		}
	}
	cfg.SetBook(book)
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("saved %d ir codes to %s\n", book.Len(), path)
	return nil
}

// learn prompts for each button in turn.
func learn(ctx context.Context, l *codebook.Learner, buttons []string) error {
	fmt.Printf("point the remote at the receiver and press each button when asked\n")
	for i, b := range buttons {
		fmt.Printf("[%d/%d] press %q ... ", i+1, len(buttons), b)
		fp, err := l.Learn(ctx, b)
		if err != nil {
			fmt.Println()
			return err
		}
		fmt.Printf("%d\n", fp)
	}
	return nil
}

func captureRF(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	hw := newBackend(cfg.GPIO.Chip, c.Bool("simulate"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	fmt.Printf("press the screen button on the RF remote a few times, Ctrl-C to finish\n")
	session, err := capture.Start(hw.watcher, cfg.GPIO.RFRxPin, func(sig rcswitch.Signal) {
		fmt.Printf("  %s\n", sig)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()

	sig, err := finishCapture(cfg, session)
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("saved %s to %s\n", sig, path)
	return nil
}

// finishCapture votes over the session and stores the winner in cfg.
func finishCapture(cfg *config.Config, session *capture.Session) (rcswitch.Signal, error) {
	sig, err := session.Stop()
	if errors.Is(err, capture.ErrNoSignal) {
		return sig, fmt.Errorf("%w, check wiring and try again", err)
	}
	if err != nil {
		return sig, err
	}
	fmt.Printf("captured %s from %d readings\n", sig, len(session.Readings()))
	cfg.RFSignal = &sig
	return sig, nil
}

func sendRF(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.RFSignal == nil {
		return errors.New("no rf_signal captured, run capture first")
	}
	hw := newBackend(cfg.GPIO.Chip, c.Bool("simulate"))
	em, err := hw.emitter(cfg.GPIO.RFTxPin)
	if err != nil {
		return fmt.Errorf("init rf transmitter: %w", err)
	}
	defer em.Close()

	sender := replay.NewSender(rcswitch.NewTransmitter(em))
	return send(os.Stdout, sender, *cfg.RFSignal, c.Int("repeat"))
}

// send replays sig and reports the outcome to w. It fails only when no
// transmission succeeded.
func send(w io.Writer, s *replay.Sender, sig rcswitch.Signal, repeat int) error {
	s.Send(sig, repeat)
	fmt.Fprintf(w, "sent %s: %d ok, %d failed\n", sig, s.Sent(), s.Failed())
	if s.Sent() == 0 {
		return fmt.Errorf("all %d transmissions failed", s.Failed())
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logging"
	"github.com/five82/swarmtail/internal/logstream"
	"github.com/five82/swarmtail/internal/swarm"
)

// TailOptions select one stream for the headless tail command. Blank Tail
// and Since fall back to the configured defaults.
type TailOptions struct {
	Options
	Source     string // service ID or name
	Tail       string
	Since      string
	Follow     bool
	Timestamps bool
	Stdout     bool
	Stderr     bool
	Details    bool
	LogWriter  io.Writer // diagnostics; nil means stderr
}

// Tail streams one service's logs to out. Without Follow it returns once
// the server ends the stream; with Follow it runs until ctx is done.
func Tail(ctx context.Context, opts TailOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Writer: opts.LogWriter, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	client, err := swarm.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("init swarm client: %w", err)
	}

	services, err := client.FetchServices(ctx)
	if err != nil {
		return fmt.Errorf("fetch services: %w", err)
	}
	svc, ok := swarm.FindService(services, strings.TrimSpace(opts.Source))
	if !ok {
		return fmt.Errorf("unknown service %q", opts.Source)
	}

	form := cfg.DefaultForm()
	form.Source = svc.Source()
	if opts.Tail != "" {
		form.Tail = opts.Tail
	}
	if opts.Since != "" {
		form.Since = logstream.NewSinceInput(opts.Since)
	}
	form.Follow = opts.Follow
	form.Timestamps = opts.Timestamps
	form.Stdout = opts.Stdout
	form.Stderr = opts.Stderr
	form.Details = opts.Details

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := logstream.NewLoop(256)
	ended := make(chan error, 1)
	printer := &linePrinter{w: out, logger: logger}
	ctrl := logstream.NewController(logstream.Options{
		Context:       runCtx,
		Dialer:        &endNotifier{Dialer: swarm.NewStreamDialer(client, logger), ended: ended},
		Post:          loop.Post,
		FlushDelay:    cfg.Stream.FlushDelay,
		MaxMessageLen: cfg.Stream.MaxMessageLen,
		Logger:        logger,
		OnCommit:      printer.commit,
	})

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(runCtx)
	}()
	// The loop goroutine is gone after this, so the controller can be
	// torn down from here.
	defer func() {
		cancel()
		<-loopDone
		ctrl.Stop()
	}()

	var startErr error
	if err := loop.Call(runCtx, func() { startErr = ctrl.Start(form) }); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-ended:
		if err != nil {
			return fmt.Errorf("stream %s: %w", svc.DisplayName(), err)
		}
		if printer.err != nil {
			return printer.err
		}
		return nil
	}
}

// linePrinter writes each commit's new lines. Lines that scrolled out of
// the window between two commits are reported as skipped.
type linePrinter struct {
	w       io.Writer
	logger  *zap.Logger
	printed uint64
	err     error
}

func (p *linePrinter) commit(c logstream.Commit) {
	if c.Total <= p.printed || p.err != nil {
		return
	}
	fresh := c.Total - p.printed
	p.printed = c.Total

	lines := c.Lines
	if fresh < uint64(len(lines)) {
		lines = lines[len(lines)-int(fresh):]
	} else if skipped := fresh - uint64(len(lines)); skipped > 0 {
		p.logger.Warn("output fell behind, lines skipped", zap.Uint64("skipped", skipped))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			p.err = fmt.Errorf("write output: %w", err)
			return
		}
	}
}

// endNotifier reports on ended when a stream disconnects for good.
type endNotifier struct {
	logstream.Dialer
	ended chan<- error
}

func (d *endNotifier) Open(ctx context.Context, s logstream.Session, h logstream.Handler) (io.Closer, error) {
	return d.Dialer.Open(ctx, s, &endHandler{Handler: h, ended: d.ended})
}

type endHandler struct {
	logstream.Handler
	ended chan<- error
}

func (h *endHandler) Disconnected(ctx context.Context, err error) bool {
	if h.Handler.Disconnected(ctx, err) {
		return true
	}
	select {
	case h.ended <- err:
	default:
	}
	return false
}

package sdr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/airwave-labs/modeswatch/internal/modes"
)

const (
	// ReadErrorsThreshold is the number of consecutive malformed reads
	// (an odd byte left over at EOF does not count) allowed before a
	// capture is abandoned.
	ReadErrorsThreshold = 5
)

var (
	// ErrTooManyReadErrors is returned when consecutive decode errors
	// exceed ReadErrorsThreshold.
	ErrTooManyReadErrors = errors.New("sdr: too many consecutive read errors")

	// ErrBrokenPipe wraps an I/O error reading the capture tool's stdout
	// or stderr.
	ErrBrokenPipe = errors.New("sdr: broken pipe")
)

// Enqueuer is the write side of modes.SampleQueue: whatever Capture
// pushes decoded samples into. modes.SampleFIFO satisfies it.
type Enqueuer interface {
	Enqueue(modes.IQSample)
}

// Handler builds the command for a specific capture tool and names it
// for logging; Capture owns everything else (process lifecycle, stdout
// decoding, error handling).
type Handler interface {
	Cmd(ctx context.Context) *exec.Cmd
	Device() string
}

// WithLogger sets the logger used for capture lifecycle events.
func WithLogger(logger *slog.Logger) func(*Capture) {
	return func(c *Capture) {
		c.logger = logger.With(slog.String("device", c.handler.Device()))
	}
}

// WithReadErrorsThreshold overrides ReadErrorsThreshold.
func WithReadErrorsThreshold(threshold uint8) func(*Capture) {
	return func(c *Capture) {
		c.readErrorsThreshold = threshold
	}
}

// Capture runs an external SDR tool as a subprocess and decodes its
// raw interleaved I/Q stdout stream into IQSample pairs, pushing each
// one onto a queue for the demodulator to consume.
//
// It is the same externally-spawned-process, stdout/stderr/cmd.Wait
// lifecycle the teacher's Device used for line-oriented rtl_power
// output, adapted to decode two raw bytes at a time instead of
// scanning text lines.
type Capture struct {
	handler Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	readErrorsThreshold uint8
	logger               *slog.Logger
}

// NewCapture creates a Capture that runs handler's command.
func NewCapture(h Handler, options ...func(*Capture)) *Capture {
	c := Capture{
		handler:              h,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		readErrorsThreshold:  ReadErrorsThreshold,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Start spawns the capture tool and begins decoding its stdout into
// queue until ctx is cancelled or Stop is called. The returned channel
// receives a single error (or nil) when capture stops.
func (c *Capture) Start(ctx context.Context, queue Enqueuer) (<-chan error, error) {
	if c.running.Load() {
		return nil, fmt.Errorf("sdr: capture is already running")
	}

	c.running.Store(true)

	ctx, c.cancel = context.WithCancel(ctx)
	cmd := c.handler.Cmd(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.running.Store(false)
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		c.running.Store(false)
		return nil, fmt.Errorf("error creating stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		c.running.Store(false)
		return nil, fmt.Errorf("error starting command: %w", err)
	}

	// Buffered by 1 so the goroutine below never blocks sending its
	// final error if the caller already moved on (e.g. selecting on
	// ctx.Done() instead of draining this channel during shutdown).
	stopped := make(chan error, 1)

	c.wg.Add(1)
	go func() {
		defer close(stopped)

		c.logger.Info("capture starting")

		done := make(chan error, 3)

		// cmd.Wait closes the stdout/stderr pipes once the process exits,
		// so it runs only after both readers have reached EOF; each
		// reader's result is forwarded to done as soon as it arrives.
		readersDone := make(chan error, 2)
		go c.readSamples(stdout, queue, readersDone)
		go c.readStderr(stderr, readersDone)
		go func() {
			for i := 0; i < cap(readersDone); i++ {
				done <- <-readersDone
			}
			c.waitCmd(cmd, done)
		}()

		var errs []error
		for i := 0; i < cap(done); i++ {
			if err := <-done; err != nil {
				c.cancel()
				c.logger.Error(err.Error())
				errs = append(errs, err)
			}
		}
		close(done)

		c.logger.Info("capture stopped")

		c.running.Store(false)
		c.wg.Done()

		if len(errs) > 0 {
			stopped <- errors.Join(errs...)
		}
	}()

	return stopped, nil
}

// Stop signals the capture to exit and blocks until it has.
func (c *Capture) Stop() {
	if !c.running.Load() {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.running.Store(false)
}

// IsRunning reports whether the capture subprocess is active.
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// readSamples decodes stdout two bytes at a time (I, Q) and enqueues
// each pair. A lone trailing byte at EOF is discarded, not an error:
// the stream simply ended mid-sample.
func (c *Capture) readSamples(stdout io.Reader, queue Enqueuer, done chan<- error) {
	r := bufio.NewReaderSize(stdout, 64*1024)
	var pair [2]byte
	var consecutiveErrors uint8

	for {
		n, err := io.ReadFull(r, pair[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			consecutiveErrors++
			c.logger.Warn("error reading I/Q pair", slog.String("error", err.Error()), slog.Int("bytesRead", n))
			if consecutiveErrors >= c.readErrorsThreshold {
				done <- ErrTooManyReadErrors
				return
			}
			continue
		}

		consecutiveErrors = 0
		queue.Enqueue(modes.IQSample{I: pair[0], Q: pair[1]})
	}

	done <- nil
}

// readStderr relays the capture tool's own diagnostic output to the
// logger; rtl_sdr writes its startup banner and gain reports here.
func (c *Capture) readStderr(stderr io.Reader, done chan<- error) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		c.logger.Warn(fmt.Sprintf("%s >> %s", c.handler.Device(), line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}
	done <- nil
}

func (c *Capture) waitCmd(cmd *exec.Cmd, done chan<- error) {
	if err := cmd.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		done <- fmt.Errorf("command exited with error: %w", err)
		return
	}
	done <- nil
}

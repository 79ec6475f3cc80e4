package modes

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FrameHandler receives every frame the trust filter has decided to
// surface.
type FrameHandler func(RawFrame)

// WithLogger sets the logger used for lifecycle events. Frame
// rejections are never logged, per the "expected at high volume"
// rule; only worker start and stop are. Misuse conditions are returned
// to the caller as a MisuseError, not logged.
func WithLogger(logger *slog.Logger) func(*Demodulator) {
	return func(d *Demodulator) {
		d.logger = logger
	}
}

// WithClock overrides the time source, for deterministic tests of the
// TTL sweep and trust-filter promotion.
func WithClock(now func() time.Time) func(*Demodulator) {
	return func(d *Demodulator) {
		d.now = now
	}
}

// Demodulator runs the ring-buffered preamble matcher, bit slicer,
// frame classifier, CRC engine and trust filter over a stream of
// IQSample values, either synchronously or via a single dedicated
// async worker.
//
// The ring buffer, frame-slicing state and the worker goroutine are
// owned exclusively by whichever call path is currently running; the
// trust filter is the only state shared between the worker and the
// periodic sweep, and it guards itself internally.
type Demodulator struct {
	trust   *TrustFilter
	onFrame FrameHandler
	logger  *slog.Logger
	now     func() time.Time

	ring ringBuffer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDemodulator creates a Demodulator that reports trust-filter
// decisions to onFrame.
func NewDemodulator(trust *TrustFilter, onFrame FrameHandler, options ...func(*Demodulator)) *Demodulator {
	d := &Demodulator{
		trust:   trust,
		onFrame: onFrame,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// ProcessSamples demodulates samples inline on the caller's execution
// context; it is a MisuseError to call it while the async worker is
// running.
func (d *Demodulator) ProcessSamples(samples []IQSample) error {
	if d.running.Load() {
		return newMisuseError("modes: cannot process samples synchronously while the async worker is running")
	}

	for _, sample := range samples {
		d.processOne(sample)
	}
	return nil
}

// StartAsync starts the single dedicated worker that dequeues samples
// from queue, plus the periodic TTL-sweep timer, until ctx is
// cancelled or Stop is called. Starting a second async worker on the
// same Demodulator is a MisuseError.
func (d *Demodulator) StartAsync(ctx context.Context, queue SampleQueue) error {
	if !d.running.CompareAndSwap(false, true) {
		return newMisuseError("modes: async worker is already running")
	}

	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(2)
	go d.runWorker(ctx, queue)
	go d.runSweep(ctx)

	return nil
}

// Stop signals the worker and sweep timer to exit at their next
// iteration check and blocks until they have. It does not drain the
// queue first.
func (d *Demodulator) Stop() {
	if !d.running.Load() {
		return
	}

	d.cancel()
	d.wg.Wait()
	d.running.Store(false)
}

// IsRunning reports whether the async worker is currently active.
func (d *Demodulator) IsRunning() bool {
	return d.running.Load()
}

func (d *Demodulator) runWorker(ctx context.Context, queue SampleQueue) {
	defer d.wg.Done()

	d.logger.Info("demodulator worker starting")
	defer d.logger.Info("demodulator worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sample, ok := queue.Dequeue()
		if !ok {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		d.processOne(sample)
	}
}

func (d *Demodulator) runSweep(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.trust.Sweep(d.now())
		}
	}
}

// processOne pushes one sample through the pipeline: magnitude, ring
// buffer, preamble test, bit slicer, classifier, trust filter. Every
// rejection point returns silently, per the "expected at high volume,
// not logged" contract.
func (d *Demodulator) processOne(sample IQSample) {
	d.processMagnitude(LookupMagnitude(sample))
}

// processMagnitude runs a single already-computed magnitude through the
// ring buffer, preamble test, bit slicer, classifier and trust filter.
// Split out from processOne so tests can drive the pipeline with exact
// synthesized magnitudes instead of reverse-engineering I/Q pairs.
func (d *Demodulator) processMagnitude(mag Magnitude) {
	d.ring.push(mag)

	if !isPreamble(&d.ring) {
		return
	}

	sliced, ok := sliceBits(&d.ring)
	if !ok {
		return
	}

	icao, ok := GetICAO(sliced.bytes)
	if !ok {
		return
	}

	if !d.trust.Observe(d.now(), sliced.df, icao) {
		return
	}

	if d.onFrame != nil {
		d.onFrame(RawFrame{Bytes: sliced.bytes, DF: sliced.df, ICAO: icao})
	}
}

// Stats is a snapshot of trust-filter table sizes, for run-statistics
// reporting; it carries no per-frame detail since that would imply
// per-event logging the design forbids.
type Stats struct {
	Trusted   int
	Candidate int
}

// Stats returns the current trusted/candidate table sizes.
func (d *Demodulator) Stats() Stats {
	trusted, candidate := d.trust.Counts()
	return Stats{Trusted: trusted, Candidate: candidate}
}

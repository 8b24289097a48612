package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"voice-receptionist/internal/calls"
	"voice-receptionist/pkg/logger"
)

// Notice is one booking to announce.
type Notice struct {
	AgentID      string
	AgentName    string
	AdminEmail   string
	CallerNumber string
	// Location is used to render the requested time; nil means UTC.
	Location *time.Location
	Booking  calls.Booking
}

// Recorder receives per-send outcomes (for metrics). Optional.
type Recorder interface {
	NotificationResult(kind, result string)
}

const (
	KindAdmin    = "admin"
	KindCustomer = "customer"

	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"
)

type Config struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.QueueSize <= 0 {
		out.QueueSize = 256
	}
	if out.Workers <= 0 {
		out.Workers = 2
	}
	if out.SendTimeout <= 0 {
		out.SendTimeout = 10 * time.Second
	}
	return out
}

// Dispatcher sends booking emails off the request path. Dispatch never
// blocks; a full queue drops the notice. Sends are not retried.
type Dispatcher struct {
	mailer   Mailer
	cfg      Config
	queue    chan Notice
	log      *slog.Logger
	recorder Recorder
	stopped  atomic.Bool
}

func NewDispatcher(m Mailer, cfg Config, log *slog.Logger, rec Recorder) *Dispatcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		mailer:   m,
		cfg:      cfg,
		queue:    make(chan Notice, cfg.QueueSize),
		log:      log,
		recorder: rec,
	}
}

// Dispatch enqueues n and reports whether it was accepted. Notices offered
// after Run has returned are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice) bool {
	if d.stopped.Load() {
		logger.From(ctx).Warn("notification dispatcher stopped, dropping",
			"agent_id", n.AgentID,
			"booking_id", n.Booking.ID,
		)
		d.record(KindAdmin, ResultDropped)
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		logger.From(ctx).Warn("notification queue full, dropping",
			"agent_id", n.AgentID,
			"booking_id", n.Booking.ID,
		)
		d.record(KindAdmin, ResultDropped)
		return false
	}
}

// Run starts the workers and blocks until ctx is canceled. Notices still
// queued at that point are sent before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
	d.stopped.Store(true)
}

// Pending is the number of queued notices not yet picked up by a worker.
func (d *Dispatcher) Pending() int { return len(d.queue) }

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-ctx.Done():
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

// deliver sends the admin and customer messages independently.
func (d *Dispatcher) deliver(n Notice) {
	log := d.log.With("agent_id", n.AgentID, "booking_id", n.Booking.ID, "call_log_id", n.Booking.CallLogID)

	if n.AdminEmail != "" {
		msg, err := adminMessage(n)
		d.send(log, KindAdmin, msg, err)
	} else {
		log.Warn("agent has no admin email; skipping admin notification")
		d.record(KindAdmin, ResultSkipped)
	}

	if n.Booking.CustomerEmail != "" {
		msg, err := customerMessage(n)
		d.send(log, KindCustomer, msg, err)
	}
}

func (d *Dispatcher) send(log *slog.Logger, kind string, msg Message, renderErr error) {
	if renderErr != nil {
		log.Error("render notification", "kind", kind, "err", renderErr)
		d.record(kind, ResultFailed)
		return
	}
	// Detached from any request: the webhook has usually answered already.
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		log.Error("send notification", "kind", kind, "err", err)
		d.record(kind, ResultFailed)
		return
	}
	log.Info("notification sent", "kind", kind)
	d.record(kind, ResultSent)
}

func (d *Dispatcher) record(kind, result string) {
	if d.recorder != nil {
		d.recorder.NotificationResult(kind, result)
	}
}

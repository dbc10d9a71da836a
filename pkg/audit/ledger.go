package audit

import (
	"context"
	"errors"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// DefaultMaxPending bounds the in-memory retry queue.
const DefaultMaxPending = 10000

// ErrNoSealer is returned by Verify when the ledger was built without a key.
var ErrNoSealer = errors.New("audit: ledger has no sealing key")

// Ledger assigns ids and seals to entries, persists them and keeps the
// ones that failed to persist for a later retry.
type Ledger struct {
	store      Store
	syslog     *Logger
	sealer     *Sealer
	now        func() time.Time
	log        logrus.FieldLogger
	maxPending int
	onFailure  func(Entry, error)

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy

	mu      sync.Mutex
	pending []Entry

	flushMu sync.Mutex
}

type LedgerOption func(*Ledger)

// WithSyslog mirrors every recorded entry to an RFC5424 logger.
func WithSyslog(l *Logger) LedgerOption {
	return func(led *Ledger) { led.syslog = l }
}

func WithSealer(s *Sealer) LedgerOption {
	return func(led *Ledger) { led.sealer = s }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(led *Ledger) { led.now = now }
}

func WithLogger(log logrus.FieldLogger) LedgerOption {
	return func(led *Ledger) { led.log = log }
}

func WithMaxPending(n int) LedgerOption {
	return func(led *Ledger) { led.maxPending = n }
}

// WithFailureHook is called for every failed write, including retries.
func WithFailureHook(fn func(Entry, error)) LedgerOption {
	return func(led *Ledger) { led.onFailure = fn }
}

func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:      store,
		now:        time.Now,
		log:        logrus.StandardLogger(),
		maxPending: DefaultMaxPending,
		entropy:    ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) newID(t time.Time) string {
	l.entropyMu.Lock()
	defer l.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), l.entropy).String()
}

// Record stamps e with an id, timestamp and seal and writes it once. On
// failure the entry is queued for Flush and the write error is returned;
// the returned entry is still the stamped one.
func (l *Ledger) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.CreatedAt.IsZero() {
		// storage keeps microseconds; seal what will be read back
		e.CreatedAt = l.now().UTC().Truncate(time.Microsecond)
	}
	if e.ID == "" {
		e.ID = l.newID(e.CreatedAt)
	}
	e.RiskScore = Clamp(e.RiskScore)
	if l.sealer != nil {
		seal, err := l.sealer.Seal(e)
		if err != nil {
			return e, err
		}
		e.Seal = seal
	}
	if l.syslog != nil {
		l.syslog.Log(e)
	}

	if err := l.store.Insert(ctx, e); err != nil {
		l.failed(e, err)
		l.enqueue(e)
		return e, err
	}
	return e, nil
}

func (l *Ledger) failed(e Entry, err error) {
	l.log.WithFields(logrus.Fields{
		"entry_id": e.ID,
		"category": e.Category.String(),
		"actor":    e.ActorID,
		"error":    err,
	}).Warn("audit entry not persisted, queued for retry")
	if l.onFailure != nil {
		l.onFailure(e, err)
	}
}

func (l *Ledger) enqueue(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.maxPending > 0 && len(l.pending) >= l.maxPending {
		dropped := l.pending[0]
		l.pending = l.pending[1:]
		l.log.WithFields(logrus.Fields{
			"entry_id": dropped.ID,
			"category": dropped.Category.String(),
			"actor":    dropped.ActorID,
		}).Error("audit retry queue full, dropping oldest entry")
	}
	l.pending = append(l.pending, e)
}

// Pending returns the number of entries waiting to be persisted. The
// ledger is caught up when it is zero.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush retries queued entries in order. It returns how many were
// written and the first error seen; unwritten entries stay queued.
func (l *Ledger) Flush(ctx context.Context) (int, error) {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	written := 0
	var firstErr error
	for i, e := range batch {
		if err := ctx.Err(); err != nil {
			l.requeue(batch[i:])
			if firstErr == nil {
				firstErr = err
			}
			return written, firstErr
		}
		if err := l.store.Insert(ctx, e); err != nil {
			l.failed(e, err)
			if firstErr == nil {
				firstErr = err
			}
			l.requeue(batch[i : i+1])
			continue
		}
		written++
	}
	return written, firstErr
}

// requeue puts entries back ahead of anything queued since the flush began.
func (l *Ledger) requeue(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(append([]Entry(nil), entries...), l.pending...)
}

// Run flushes the retry queue every interval until ctx is done.
func (l *Ledger) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Pending() == 0 {
				continue
			}
			n, err := l.Flush(ctx)
			if n > 0 {
				l.log.WithField("written", n).Info("audit retry queue flushed")
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				l.log.WithError(err).WithField("pending", l.Pending()).Warn("audit retry incomplete")
			}
		}
	}
}

// Verify checks the entry's seal against the ledger key.
func (l *Ledger) Verify(e Entry) (bool, error) {
	if l.sealer == nil {
		return false, ErrNoSealer
	}
	return l.sealer.Verify(e), nil
}

func (l *Ledger) List(ctx context.Context, f Filter) ([]Entry, error) {
	return l.store.List(ctx, f)
}

func (l *Ledger) ListByActor(ctx context.Context, actorID string, limit int) ([]Entry, error) {
	return l.store.List(ctx, Filter{ActorID: actorID, Limit: limit})
}

func (l *Ledger) ListByWindow(ctx context.Context, since, until time.Time) ([]Entry, error) {
	return l.store.List(ctx, Filter{Since: since, Until: until})
}

func (l *Ledger) ListByCategory(ctx context.Context, category Category, since time.Time) ([]Entry, error) {
	return l.store.List(ctx, Filter{Category: &category, Since: since})
}

// Purge removes entries older than retention, measured from now.
func (l *Ledger) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("audit: retention must be positive")
	}
	return l.store.Purge(ctx, l.now().Add(-retention))
}

// Now is the ledger's clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

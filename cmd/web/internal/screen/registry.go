package screen

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"thirdcoast.systems/screencast/cmd/web/internal/metrics"
)

const (
	// DefaultKeepaliveInterval is how often an idle viewer is sent a keepalive.
	DefaultKeepaliveInterval = 30 * time.Second

	connectedText = "Connection established"
)

var (
	ErrRegistryClosed = errors.New("viewer registry closed")
	ErrTooManyViewers = errors.New("too many connected viewers")
	ErrSinkFailed     = errors.New("viewer sink failed during registration")

	errChannelClosed = errors.New("viewer channel closed")
)

// Options tunes a Registry.
type Options struct {
	KeepaliveInterval time.Duration
	// MaxViewers caps concurrent channels; zero means no cap.
	MaxViewers int
}

// ViewerInfo describes a connected viewer for the presenter.
type ViewerInfo struct {
	ID          ChannelID `json:"id"`
	RemoteIP    string    `json:"remoteIp,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Transport   string    `json:"transport,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry owns the set of live viewer channels and the latest snapshot.
// It fans snapshots out to every channel and evicts any channel whose sink
// fails, whether during a publish or a keepalive.
type Registry struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	opts     Options
	channels map[ChannelID]*channel
	latest   *Snapshot
	closed   bool

	// keepalive loops
	wg sync.WaitGroup
}

type channel struct {
	id   ChannelID
	sink Sink
	info ViewerInfo
	done chan struct{}

	// sendMu serialises writes to sink; closed is guarded by it.
	sendMu    sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewRegistry creates an empty registry.
func NewRegistry(clock clockwork.Clock, opts Options) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = DefaultKeepaliveInterval
	}
	return &Registry{
		clock:    clock,
		opts:     opts,
		channels: make(map[ChannelID]*channel),
	}
}

// RegisterViewer admits sink as a new channel. The sink receives a
// connected message carrying the channel id, then the latest snapshot if
// one exists, and only then keepalives and later snapshots.
func (r *Registry) RegisterViewer(sink Sink, info ViewerInfo) (ChannelID, error) {
	ch := &channel{
		id:   ChannelID(uuid.NewString()),
		sink: sink,
		info: info,
		done: make(chan struct{}),
	}
	ch.info.ID = ch.id
	if ch.info.ConnectedAt.IsZero() {
		ch.info.ConnectedAt = r.clock.Now()
	}

	// Held until the initial messages are written so that a concurrent
	// publish or keepalive cannot overtake them.
	ch.sendMu.Lock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ch.sendMu.Unlock()
		metrics.ViewerRegistrationsTotal.WithLabelValues("rejected").Inc()
		return "", ErrRegistryClosed
	}
	if r.opts.MaxViewers > 0 && len(r.channels) >= r.opts.MaxViewers {
		r.mu.Unlock()
		ch.sendMu.Unlock()
		metrics.ViewerRegistrationsTotal.WithLabelValues("rejected").Inc()
		return "", ErrTooManyViewers
	}
	r.channels[ch.id] = ch
	var latest Snapshot
	hasLatest := r.latest != nil
	if hasLatest {
		latest = *r.latest
	}
	count := len(r.channels)
	r.wg.Add(1)
	r.mu.Unlock()

	metrics.ConnectedViewers.Set(float64(count))

	now := r.clock.Now()
	failedKind := KindConnected
	err := sink.Send(Message{Kind: KindConnected, ChannelID: ch.id, Text: connectedText, Timestamp: now})
	if err == nil {
		metrics.MessagesSentTotal.WithLabelValues(string(KindConnected)).Inc()
		if hasLatest {
			failedKind = KindSnapshot
			err = sink.Send(Message{Kind: KindSnapshot, Payload: latest.Payload, Timestamp: now})
			if err == nil {
				metrics.MessagesSentTotal.WithLabelValues(string(KindSnapshot)).Inc()
			}
		}
	}
	ch.sendMu.Unlock()

	if err != nil {
		r.evict(ch, failedKind, err)
		r.wg.Done()
		metrics.ViewerRegistrationsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}

	go r.keepalive(ch)

	metrics.ViewerRegistrationsTotal.WithLabelValues("ok").Inc()
	slog.Info("viewer connected",
		"channel_id", ch.id,
		"transport", ch.info.Transport,
		"remote_ip", ch.info.RemoteIP,
		"catch_up", hasLatest,
		"viewers", count,
	)
	return ch.id, nil
}

// PublishSnapshot stores payload as the latest snapshot and delivers it to
// every active channel. Channels whose sink fails are evicted before it
// returns. It returns the number of channels still connected.
func (r *Registry) PublishSnapshot(payload string) int {
	now := r.clock.Now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	r.latest = &Snapshot{Payload: payload, Timestamp: now}
	targets := make([]*channel, 0, len(r.channels))
	for _, ch := range r.channels {
		targets = append(targets, ch)
	}
	r.mu.Unlock()

	metrics.SnapshotsPublishedTotal.Inc()
	metrics.SnapshotSizeBytes.Observe(float64(len(payload)))

	msg := Message{Kind: KindSnapshot, Payload: payload, Timestamp: now}
	evicted := 0
	for _, ch := range targets {
		if err := ch.send(msg); err != nil {
			if r.evict(ch, KindSnapshot, err) {
				evicted++
			}
			continue
		}
		metrics.MessagesSentTotal.WithLabelValues(string(KindSnapshot)).Inc()
	}

	count := r.ConnectedCount()
	slog.Debug("snapshot published",
		"size", humanize.Bytes(uint64(len(payload))),
		"delivered", len(targets)-evicted,
		"evicted", evicted,
		"viewers", count,
	)
	return count
}

// Unregister tears down the channel with the given id. Unknown or already
// closed ids are ignored.
func (r *Registry) Unregister(id ChannelID) {
	r.mu.Lock()
	ch, ok := r.channels[id]
	if ok {
		delete(r.channels, id)
	}
	count := len(r.channels)
	r.mu.Unlock()

	if !ok {
		return
	}

	metrics.ConnectedViewers.Set(float64(count))
	ch.shutdown()
	slog.Info("viewer disconnected", "channel_id", id, "viewers", count)
}

// ConnectedCount returns the number of active channels.
func (r *Registry) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// Latest returns the most recent snapshot, if any has been published.
func (r *Registry) Latest() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Snapshot{}, false
	}
	return *r.latest, true
}

// Viewers lists the connected viewers, oldest first.
func (r *Registry) Viewers() []ViewerInfo {
	r.mu.Lock()
	out := make([]ViewerInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch.info)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Close tears down every channel and rejects further registrations. It
// waits for all keepalive loops to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	chans := make([]*channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	r.channels = make(map[ChannelID]*channel)
	r.mu.Unlock()

	metrics.ConnectedViewers.Set(0)
	for _, ch := range chans {
		ch.shutdown()
	}
	r.wg.Wait()

	slog.Info("viewer registry closed", "disconnected", len(chans))
}

func (r *Registry) keepalive(ch *channel) {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.opts.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ch.done:
			return
		case <-ticker.Chan():
			if err := ch.send(Message{Kind: KindKeepalive, Timestamp: r.clock.Now()}); err != nil {
				r.evict(ch, KindKeepalive, err)
				return
			}
			metrics.MessagesSentTotal.WithLabelValues(string(KindKeepalive)).Inc()
		}
	}
}

// evict removes ch after a failed write. It reports false when the channel
// had already been removed by another path.
func (r *Registry) evict(ch *channel, kind Kind, cause error) bool {
	r.mu.Lock()
	cur, ok := r.channels[ch.id]
	if ok && cur == ch {
		delete(r.channels, ch.id)
	}
	count := len(r.channels)
	r.mu.Unlock()

	if !ok || cur != ch {
		return false
	}

	metrics.ConnectedViewers.Set(float64(count))
	metrics.ViewerEvictionsTotal.WithLabelValues(string(kind)).Inc()
	ch.shutdown()
	slog.Warn("viewer evicted after failed write",
		"channel_id", ch.id,
		"kind", kind,
		"error", cause,
		"viewers", count,
	)
	return true
}

func (ch *channel) send(msg Message) error {
	ch.sendMu.Lock()
	defer ch.sendMu.Unlock()
	if ch.closed {
		return errChannelClosed
	}
	return ch.sink.Send(msg)
}

// shutdown stops the keepalive loop, refuses further sends and closes the
// sink. Safe to call more than once.
func (ch *channel) shutdown() {
	ch.closeOnce.Do(func() {
		close(ch.done)
		ch.sendMu.Lock()
		ch.closed = true
		ch.sendMu.Unlock()
		ch.sink.Close()
	})
}

package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

// node holds what both engines share: identity, the inbox, and the periodic task.
// Routing state lives in the embedding engine and is guarded by mu.
type node struct {
	id       state.NodeId
	cfg      state.RunCfg
	registry Registry
	Log      *slog.Logger

	mu    sync.Mutex
	inbox chan state.Message

	running atomic.Bool
	ctl     sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func (n *node) init(id state.NodeId, cfg state.RunCfg, registry Registry, log *slog.Logger) {
	cfg = cfg.Defaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	n.id = id
	n.cfg = cfg
	n.registry = registry
	n.Log = log.With("node", string(id))
	n.inbox = make(chan state.Message, cfg.InboxSize)
}

// lookup resolves a participant. Without a registry there are none.
func (n *node) lookup(id state.NodeId) (Peer, bool) {
	if n.registry == nil {
		return nil, false
	}
	return n.registry.Lookup(id)
}

func (n *node) Id() state.NodeId {
	return n.id
}

func (n *node) Running() bool {
	return n.running.Load()
}

// Deliver enqueues msg for the node's own task. It never blocks; a full inbox drops the message.
func (n *node) Deliver(msg state.Message) bool {
	select {
	case n.inbox <- msg:
		return true
	default:
		perf.MessagesDropped.Add(1)
		n.Event(MessageDropped, "inbox full, message dropped", "from", msg.From())
		return false
	}
}

func (n *node) Event(event RouterEvent, desc string, args ...any) {
	msg := fmt.Sprintf("%s %s", event.String(), desc)
	if event >= MessageDropped {
		n.Log.Warn(msg, args...)
	} else {
		n.Log.Debug(msg, args...)
	}
}

// start moves the node to Running, registers self for delivery and launches the task loop.
// tick runs once immediately and then every interval; handle runs for each inbox message.
func (n *node) start(ctx context.Context, self Peer, tick func(), handle func(state.Message)) {
	n.ctl.Lock()
	defer n.ctl.Unlock()
	if n.running.Swap(true) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	if n.registry != nil {
		n.registry.Register(n.id, self)
	}
	go n.loop(ctx, n.done, tick, handle)
}

// Stop moves the node back to Idle. It does not wait for the task loop: a round that is
// already executing runs to completion, no further round begins.
func (n *node) Stop() {
	n.ctl.Lock()
	defer n.ctl.Unlock()
	if !n.running.Swap(false) {
		return
	}
	if n.registry != nil {
		n.registry.Unregister(n.id)
	}
	n.cancel()
}

// Wait blocks until the most recently started task loop has exited.
func (n *node) Wait() {
	n.ctl.Lock()
	done := n.done
	n.ctl.Unlock()
	if done != nil {
		<-done
	}
}

// exited returns the node to Idle when its loop ends on its own, e.g. because the parent
// context was cancelled. A loop superseded by a newer start leaves the node alone.
func (n *node) exited(done chan struct{}) {
	n.ctl.Lock()
	defer n.ctl.Unlock()
	if n.done != done || !n.running.Swap(false) {
		return
	}
	if n.registry != nil {
		n.registry.Unregister(n.id)
	}
	n.cancel()
}

func (n *node) loop(ctx context.Context, done chan struct{}, tick func(), handle func(state.Message)) {
	defer close(done)
	defer n.exited(done)
	n.Log.Debug("started task loop", "interval", n.cfg.Interval)
	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	tick()
	for {
		select {
		case <-ctx.Done():
			n.Log.Debug("stopped task loop", "reason", context.Cause(ctx).Error())
			return
		case msg := <-n.inbox:
			start := time.Now()
			handle(msg)
			elapsed := time.Since(start)
			perf.HandleLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > time.Millisecond*4 {
				n.Log.Warn("message handling took a long time!", "from", msg.From(), "elapsed", elapsed, "len", len(n.inbox))
			}
		case <-ticker.C:
			if !n.running.Load() {
				return
			}
			tick()
		}
	}
}

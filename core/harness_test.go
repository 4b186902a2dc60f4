package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/encodeous/routesim/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// Mailbox is a Peer that records everything delivered to it instead of running an engine.
type Mailbox struct {
	mu     sync.Mutex
	id     state.NodeId
	events []HarnessEvent
	msgs   []state.Message
}

func (m *Mailbox) Deliver(msg state.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	switch x := msg.(type) {
	case state.UpdatePacket:
		m.events = append(m.events, MakeEvent("UPDATE", x.Source, m.id))
	case state.Lsa:
		m.events = append(m.events, MakeEvent("LSA", x.Source, m.id, x.Seqno, x.Pass))
	default:
		m.events = append(m.events, MakeEvent("UNKNOWN", msg.From(), m.id))
	}
	return true
}

func (m *Mailbox) Messages() []state.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.msgs)
}

// RouterHarness is a registry populated with mailboxes.
type RouterHarness struct {
	*EngineRegistry
	boxes map[state.NodeId]*Mailbox
}

func NewRouterHarness(ids ...state.NodeId) *RouterHarness {
	h := &RouterHarness{
		EngineRegistry: NewEngineRegistry(),
		boxes:          make(map[state.NodeId]*Mailbox),
	}
	for _, id := range ids {
		box := &Mailbox{id: id}
		h.boxes[id] = box
		h.Register(id, box)
	}
	return h
}

func (h *RouterHarness) Box(id state.NodeId) *Mailbox {
	return h.boxes[id]
}

// GetActions collects and clears the deliveries recorded by every mailbox.
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, box := range h.boxes {
		box.mu.Lock()
		x = append(x, box.events...)
		box.events = nil
		box.mu.Unlock()
	}
	return x
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func testCfg(algo string) state.RunCfg {
	return state.RunCfg{Algorithm: algo}.Defaults()
}

func mustTopology(t *testing.T, terminals, relays []state.NodeId, links ...state.RawLink) *state.Topology {
	topo, err := state.NewTopology(terminals, relays, links)
	require.NoError(t, err)
	return topo
}

func ids(names ...string) []state.NodeId {
	out := make([]state.NodeId, 0, len(names))
	for _, n := range names {
		out = append(out, state.NodeId(n))
	}
	return out
}

func link(a, b state.NodeId, delay string) state.RawLink {
	return state.RawLink{A: a, B: b, Delay: delay}
}

package state

import (
	"fmt"
	"math/rand/v2"
)

// Presets are the topology shapes selectable from the command line.
var Presets = []string{"line", "ring", "star", "mesh", "hybrid"}

type presetBuilder struct {
	cfg TopologyCfg
	rnd *rand.Rand
}

func (b *presetBuilder) delay(r Pair[int, int]) string {
	return fmt.Sprintf("%dms", r.V1+b.rnd.IntN(r.V2-r.V1+1))
}

func (b *presetBuilder) hosts(n int) []NodeId {
	for i := 1; i <= n; i++ {
		b.cfg.Terminals = append(b.cfg.Terminals, NodeId(fmt.Sprintf("h%d", i)))
	}
	return b.cfg.Terminals
}

func (b *presetBuilder) relays(n int) []NodeId {
	for i := 1; i <= n; i++ {
		b.cfg.Relays = append(b.cfg.Relays, NodeId(fmt.Sprintf("s%d", i)))
	}
	return b.cfg.Relays
}

func (b *presetBuilder) link(x, y NodeId, r Pair[int, int]) {
	b.cfg.Links = append(b.cfg.Links, RawLink{A: x, B: y, Delay: b.delay(r)})
}

// PresetTopology builds one of the classic test shapes with random delays drawn from seed:
//
//	line:   h1 - s1 - s2 - ... - s9 - h10, h_i attached to s_i
//	ring:   s1..s10 in a cycle, h_i attached to s_i
//	star:   h1..h10 all attached to s1
//	mesh:   h1..h10 fully interconnected, no relays
//	hybrid: s1 - s2 - s3 in a chain, five hosts per relay
func PresetTopology(name string, seed uint64) (*TopologyCfg, error) {
	b := &presetBuilder{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	n := PresetHosts
	switch name {
	case "line":
		h := b.hosts(n)
		s := b.relays(n - 1)
		for i := 0; i < n-1; i++ {
			b.link(h[i], s[i], HostLinkDelay)
			if i < n-2 {
				b.link(s[i], s[i+1], RelayLinkDelay)
			}
		}
		b.link(s[len(s)-1], h[len(h)-1], HostLinkDelay)
	case "ring":
		h := b.hosts(n)
		s := b.relays(n)
		for i := 0; i < n; i++ {
			b.link(h[i], s[i], HostLinkDelay)
			b.link(s[i], s[(i+1)%n], RelayLinkDelay)
		}
	case "star":
		h := b.hosts(n)
		s := b.relays(1)
		for i := 0; i < n; i++ {
			b.link(h[i], s[0], RelayLinkDelay)
		}
	case "mesh":
		h := b.hosts(n)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				b.link(h[i], h[j], RelayLinkDelay)
			}
		}
	case "hybrid":
		const relayCount, perRelay = 3, 5
		h := b.hosts(relayCount * perRelay)
		s := b.relays(relayCount)
		for i := 0; i < relayCount-1; i++ {
			b.link(s[i], s[i+1], RelayLinkDelay)
		}
		for i := range h {
			b.link(h[i], s[i/perRelay], HostLinkDelay)
		}
	default:
		return nil, fmt.Errorf("unknown topology %q, expected one of %v", name, Presets)
	}
	return &b.cfg, nil
}

package state

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type NodeId string

type NodeKind int

const (
	Terminal NodeKind = iota
	Relay
)

func (k NodeKind) String() string {
	switch k {
	case Terminal:
		return "terminal"
	case Relay:
		return "relay"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// RawLink is a link as handed over by a topology provider, before its delay is parsed.
type RawLink struct {
	A     NodeId `yaml:"a"`
	B     NodeId `yaml:"b"`
	Delay string `yaml:"delay"`
}

// Link is an undirected edge with a parsed, nonnegative delay in milliseconds.
type Link struct {
	A     NodeId
	B     NodeId
	Delay float64
}

func (l Link) String() string {
	return fmt.Sprintf("%s <-%.1fms-> %s", l.A, l.Delay, l.B)
}

// Message is anything that can be placed in a node's inbox.
type Message interface {
	From() NodeId
}

// UpdatePacket carries a snapshot of a distance vector. Receivers must treat Distances as read-only.
type UpdatePacket struct {
	Source    NodeId
	Distances map[NodeId]float64
}

func (p UpdatePacket) From() NodeId {
	return p.Source
}

// Lsa is a link state advertisement: the direct links of Source at sequence number Seqno.
// Receivers must treat Links as read-only. Pass identifies the flood that carried it and is
// the same for every copy delivered by one FloodLsa call.
type Lsa struct {
	Source NodeId
	Seqno  uint64
	Links  map[NodeId]float64
	Pass   uuid.UUID
}

func (l Lsa) From() NodeId {
	return l.Source
}

func (l Lsa) Key() LsaKey {
	return LsaKey{Source: l.Source, Seqno: l.Seqno}
}

type LsaKey struct {
	Source NodeId
	Seqno  uint64
}

// PathEntry is a computed shortest path, source and destination inclusive.
type PathEntry struct {
	Path []NodeId
	Cost float64
}

func (p PathEntry) String() string {
	return fmt.Sprintf("%s (%.1fms)", FormatPath(p.Path), p.Cost)
}

func FormatPath(path []NodeId) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = string(n)
	}
	return strings.Join(parts, " -> ")
}

package state

import (
	"math"
	"time"
)

// INF is the unreachable metric. Costs are delays in milliseconds.
var INF = math.Inf(1)

const (
	AlgoDistanceVector = "distance-vector"
	AlgoLinkState      = "link-state"

	// DelaySuffix is the unit every link delay string must carry.
	DelaySuffix = "ms"
)

var (
	UpdateInterval   = time.Second
	DefaultInboxSize = 1024
	// LsaDedupTTL bounds how long a (source, seqno) pair is remembered when flood dedup is on.
	LsaDedupTTL = 30 * UpdateInterval

	ConvergencePoll   = 500 * time.Millisecond
	ConvergenceStable = 3
	ConvergenceLimit  = 30 * time.Second

	// preset generation, same ranges as the mininet topologies
	HostLinkDelay  = Pair[int, int]{V1: 1, V2: 10}
	RelayLinkDelay = Pair[int, int]{V1: 1, V2: 100}
	PresetHosts    = 10
)

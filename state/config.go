package state

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// TopologyCfg is the on-disk description of a network.
type TopologyCfg struct {
	Terminals []NodeId  `yaml:"terminals"`
	Relays    []NodeId  `yaml:"relays,omitempty"`
	Links     []RawLink `yaml:"links,omitempty"`
	// Graph interconnects nodes using the group syntax understood by ParseGraph. Every
	// resulting pair is linked with GraphDelay.
	Graph      []string `yaml:"graph,omitempty"`
	GraphDelay string   `yaml:"graph_delay,omitempty"`
}

type HorizonMode string

const (
	HorizonNone   HorizonMode = "none"
	HorizonSplit  HorizonMode = "split"
	HorizonPoison HorizonMode = "poison"
)

// RunCfg configures the routing engines of a fleet.
type RunCfg struct {
	Algorithm  string        `yaml:"algorithm"`
	Interval   time.Duration `yaml:"interval,omitempty"`
	Horizon    HorizonMode   `yaml:"horizon,omitempty"`     // distance-vector loop suppression, none by default
	FloodDedup bool          `yaml:"flood_dedup,omitempty"` // link-state duplicate suppression keyed by (source, seqno)
	InboxSize  int           `yaml:"inbox_size,omitempty"`
	LogPath    string        `yaml:"log_path,omitempty"` // if not empty, logs are also written to this file
}

// Defaults fills unset fields.
func (c RunCfg) Defaults() RunCfg {
	if c.Interval <= 0 {
		c.Interval = UpdateInterval
	}
	if c.Horizon == "" {
		c.Horizon = HorizonNone
	}
	if c.InboxSize <= 0 {
		c.InboxSize = DefaultInboxSize
	}
	return c
}

func LoadTopology(path string) (*TopologyCfg, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg TopologyCfg
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *TopologyCfg) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *TopologyCfg) GetNodes() []NodeId {
	nodes := make([]NodeId, 0, len(c.Terminals)+len(c.Relays))
	nodes = append(nodes, c.Terminals...)
	nodes = append(nodes, c.Relays...)
	return nodes
}

// ExpandLinks returns the explicit links followed by the ones generated from Graph.
func (c *TopologyCfg) ExpandLinks() ([]RawLink, error) {
	links := slices.Clone(c.Links)
	if len(c.Graph) == 0 {
		return links, nil
	}
	if c.GraphDelay == "" {
		return nil, fmt.Errorf("graph is set but graph_delay is empty")
	}
	names := make([]string, 0)
	for _, n := range c.GetNodes() {
		names = append(names, string(n))
	}
	pairs, err := ParseGraph(c.Graph, names)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if slices.ContainsFunc(c.Links, func(l RawLink) bool {
			return MakeSortedPair(l.A, l.B) == p
		}) {
			continue // explicit links take precedence
		}
		links = append(links, RawLink{A: p.V1, B: p.V2, Delay: c.GraphDelay})
	}
	return links, nil
}

// Build validates the configuration and produces the topology used by the engines.
func (c *TopologyCfg) Build() (*Topology, error) {
	err := TopologyValidator(c)
	if err != nil {
		return nil, err
	}
	links, err := c.ExpandLinks()
	if err != nil {
		return nil, err
	}
	return NewTopology(c.Terminals, c.Relays, links)
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	spl := strings.Split(strings.TrimSpace(s), ",")
	line := make([]string, 0)
	for _, s := range spl {
		x := strings.TrimSpace(s)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph expands the graph notation of a topology file into the node pairs it links. A line
either defines a group or meshes the names it lists:

	core = s1, s2, s3
	edge = s4, s5
	hosts = h1, h2

	core, core      // the core relays form a full mesh
	core, edge, h1  // links every core relay, every edge relay and h1 to each other, nothing within a group
	hosts, edge     // every host attaches to every edge relay
	h8, s9          // a single link

A group may list other groups, in any order, as long as no definition reaches back to itself.
nodes holds the terminal and relay names the graph may refer to. Names are case-sensitive.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[NodeId, NodeId], error) {
	groups, meshes, err := parseGraphLines(graph, nodes)
	if err != nil {
		return nil, err
	}
	members, err := resolveGroups(groups, nodes)
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair[NodeId, NodeId], 0)
	for _, mesh := range meshes {
		pairs = append(pairs, meshPairs(mesh, members)...)
	}
	SortPairs(pairs)
	return slices.Compact(pairs), nil
}

func splitGroup(line string) (name, body string, isGroup bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "=") {
		return "", line, false, nil
	}
	spl := strings.Split(line, "=")
	if len(spl) != 2 {
		return "", "", false, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
	}
	return strings.TrimSpace(spl[0]), spl[1], true, nil
}

// parseGraphLines separates group definitions from mesh lines. Group names are collected before
// any line is parsed, so a group may be used above its definition.
func parseGraphLines(graph []string, nodes []string) (map[string][]string, [][]string, error) {
	symbols := slices.Clone(nodes)
	for _, line := range graph {
		name, _, isGroup, err := splitGroup(line)
		if err != nil {
			return nil, nil, err
		}
		if !isGroup {
			continue
		}
		if slices.Contains(nodes, name) {
			return nil, nil, fmt.Errorf("group name must not be a node name: %s", name)
		}
		symbols = append(symbols, name)
	}

	groups := make(map[string][]string)
	meshes := make([][]string, 0)
	for _, line := range graph {
		name, body, isGroup, _ := splitGroup(line)
		if isGroup {
			if _, ok := groups[name]; ok {
				return nil, nil, fmt.Errorf("duplicate group name: %s", name)
			}
			lst, err := parseSymbolList(body, symbols)
			if err != nil {
				return nil, nil, err
			}
			groups[name] = lst
			continue
		}
		names, err := parseSymbolList(body, symbols)
		if err != nil {
			return nil, nil, err
		}
		if len(names) < 2 {
			return nil, nil, fmt.Errorf("invalid pairing, %v", names)
		}
		meshes = append(meshes, names)
	}
	return groups, meshes, nil
}

// resolveGroups flattens every group into the sorted set of nodes it stands for.
func resolveGroups(groups map[string][]string, nodes []string) (map[string][]NodeId, error) {
	resolved := make(map[string][]NodeId, len(groups))
	var stack []string
	var resolve func(name string) error
	resolve = func(name string) error {
		if _, ok := resolved[name]; ok {
			return nil
		}
		if i := slices.Index(stack, name); i >= 0 {
			cycle := slices.Clone(stack[i:])
			slices.Sort(cycle)
			return fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		stack = append(stack, name)
		members := make([]NodeId, 0)
		for _, sym := range groups[name] {
			if slices.Contains(nodes, sym) {
				members = append(members, NodeId(sym))
				continue
			}
			if err := resolve(sym); err != nil {
				return err
			}
			members = append(members, resolved[sym]...)
		}
		stack = stack[:len(stack)-1]
		slices.Sort(members)
		resolved[name] = slices.Compact(members)
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		if err := resolve(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// meshPairs links every name on a mesh line to every other name on it. A group repeated on the
// line meshes with itself.
func meshPairs(mesh []string, members map[string][]NodeId) []Pair[NodeId, NodeId] {
	expand := func(sym string) []NodeId {
		if m, ok := members[sym]; ok {
			return m
		}
		return []NodeId{NodeId(sym)}
	}
	pairs := make([]Pair[NodeId, NodeId], 0)
	for i, a := range mesh {
		for _, b := range mesh[:i] {
			for _, x := range expand(a) {
				for _, y := range expand(b) {
					if x != y {
						pairs = append(pairs, MakeSortedPair(x, y))
					}
				}
			}
		}
	}
	return pairs
}

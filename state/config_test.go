package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraph_SimpleGraph(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := `1, 2
3, 4
1,3,5`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		{"1", "2"},
		{"3", "4"},
		{"1", "3"},
		{"3", "5"},
		{"1", "5"},
	})
}

func TestParseGraph_Groups(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5", "6", "7"}
	input := `a = 1,2
b=3,,,4
c=5,6
d=a,b
d,d
7,d`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		// d,d
		{"1", "2"},
		{"1", "3"},
		{"1", "4"},
		{"2", "3"},
		{"2", "4"},
		{"3", "4"},
		// 7,d
		{"1", "7"},
		{"2", "7"},
		{"3", "7"},
		{"4", "7"},
	})
}

func TestParseGraph_Cycle(t *testing.T) {
	nodes := []string{}
	input := `a = b
b = c
c = a`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "cycle detected in graph: [a b c]")
}

func TestParseGraph_DupGroupName(t *testing.T) {
	nodes := []string{}
	input := `a = b
a = b
b = b`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "duplicate group name: a")
}

func TestParseGraph_SymbolError(t *testing.T) {
	nodes := []string{"1"}
	input := `a = 1
b = 2`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "2 is not a valid node/group")
}

func TestParseGraph_EmptyGroup(t *testing.T) {
	nodes := []string{"1"}
	input := `a =`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func TestParseGraph_GroupNameIsNodeName(t *testing.T) {
	nodes := []string{"1"}
	input := `1 = 1`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "group name must not be a node name: 1")
}

func TestParseGraph_InvalidGroupDefinition(t *testing.T) {
	nodes := []string{"1"}
	input := `a = 1 = b`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, ". group definition must contain one '='")
}

func TestParseGraph_Single(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := `1`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "invalid pairing, [1]")
}

func TestParseGraph_None(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := ``
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func TestParseGraph_GroupsDeep(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5", "6", "7"}
	input := `a = 1,2
b = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
c = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
d = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
e = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
f = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
g = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
h = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
i = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
j = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
k = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
k,k,3`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		{"1", "2"},
		{"1", "3"},
		{"2", "3"},
	})
}

func TestParseGraph_RelayFabric(t *testing.T) {
	nodes := []string{"h1", "h2", "s1", "s2", "s3"}
	input := `hosts, edge
edge = s2, s3
hosts = h1, h2
fabric = s1, edge
fabric, fabric`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	require.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		// hosts, edge
		{"h1", "s2"},
		{"h1", "s3"},
		{"h2", "s2"},
		{"h2", "s3"},
		// fabric, fabric
		{"s1", "s2"},
		{"s1", "s3"},
		{"s2", "s3"},
	})
}

func TestParseGraph_CycleBehindGroup(t *testing.T) {
	nodes := []string{"1"}
	input := `a = 1, b
b = c
c = b`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "cycle detected in graph: [b c]")
}

func failGraph(t *testing.T, graph string) {
	_, err := ParseGraph(strings.Split(graph, "\n"), []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"})
	assert.Error(t, err)
}

func TestParseGraph_InvalidGraph(t *testing.T) {
	failGraph(t, `this graph is a baddie`)
	failGraph(t, `=========,,,,`)
	failGraph(t, `#`)
	failGraph(t, `\n\n\n\n\n\n`)
	failGraph(t, `1`)
	failGraph(t, `1,2,3,4,5,6,a`)
	failGraph(t, `1,2,3,4,5,6,7,8,9,10,11,12,13,14,15`)
	failGraph(t, `,,,,,,,,,,,,,,,,`)
	failGraph(t, `a=a`)
}

const sampleTopology = `terminals: [h1, h2, h3]
relays: [s1]
links:
  - {a: h1, b: s1, delay: 3ms}
  - {a: s1, b: h2, delay: 4ms}
graph:
  - "hosts = h1, h2"
  - "hosts, h3"
graph_delay: 20ms
`

func writeTopology(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestLoadTopology(t *testing.T) {
	cfg, err := LoadTopology(writeTopology(t, sampleTopology))
	require.NoError(t, err)
	assert.Equal(t, []NodeId{"h1", "h2", "h3"}, cfg.Terminals)
	assert.Equal(t, []NodeId{"s1"}, cfg.Relays)
	assert.Equal(t, RawLink{A: "h1", B: "s1", Delay: "3ms"}, cfg.Links[0])
	assert.Equal(t, "20ms", cfg.GraphDelay)
}

func TestLoadTopology_Missing(t *testing.T) {
	_, err := LoadTopology(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadTopology_Malformed(t *testing.T) {
	_, err := LoadTopology(writeTopology(t, "terminals: {"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestTopologyCfg_ExpandLinks(t *testing.T) {
	cfg, err := LoadTopology(writeTopology(t, sampleTopology))
	require.NoError(t, err)
	links, err := cfg.ExpandLinks()
	require.NoError(t, err)
	assert.ElementsMatch(t, links, []RawLink{
		{A: "h1", B: "s1", Delay: "3ms"},
		{A: "s1", B: "h2", Delay: "4ms"},
		{A: "h1", B: "h3", Delay: "20ms"},
		{A: "h2", B: "h3", Delay: "20ms"},
	})
}

func TestTopologyCfg_ExplicitLinkWins(t *testing.T) {
	cfg := &TopologyCfg{
		Terminals:  []NodeId{"a", "b"},
		Links:      []RawLink{{A: "b", B: "a", Delay: "1ms"}},
		Graph:      []string{"a, b"},
		GraphDelay: "9ms",
	}
	links, err := cfg.ExpandLinks()
	require.NoError(t, err)
	assert.Equal(t, []RawLink{{A: "b", B: "a", Delay: "1ms"}}, links)
}

func TestTopologyCfg_GraphNeedsDelay(t *testing.T) {
	cfg := &TopologyCfg{
		Terminals: []NodeId{"a", "b"},
		Graph:     []string{"a, b"},
	}
	_, err := cfg.ExpandLinks()
	assert.ErrorContains(t, err, "graph_delay")
}

func TestTopologyCfg_Build(t *testing.T) {
	cfg, err := LoadTopology(writeTopology(t, sampleTopology))
	require.NoError(t, err)
	topo, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, []NodeId{"h1", "h2", "h3"}, topo.Terminals())
	assert.Equal(t, []NodeId{"s1"}, topo.Relays())
	assert.Len(t, topo.Links(), 4)
}

func TestTopologyCfg_MarshalRoundTrip(t *testing.T) {
	cfg, err := PresetTopology("hybrid", 7)
	require.NoError(t, err)
	out, err := cfg.Marshal()
	require.NoError(t, err)
	back, err := LoadTopology(writeTopology(t, string(out)))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestRunCfg_Defaults(t *testing.T) {
	cfg := RunCfg{Algorithm: AlgoLinkState}.Defaults()
	assert.Equal(t, UpdateInterval, cfg.Interval)
	assert.Equal(t, HorizonNone, cfg.Horizon)
	assert.Equal(t, DefaultInboxSize, cfg.InboxSize)
}

package state

import (
	"fmt"
	"regexp"
	"slices"
)

var namePattern, _ = regexp.Compile("^[0-9A-Za-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func AlgorithmValidator(s string) error {
	if s != AlgoDistanceVector && s != AlgoLinkState {
		return fmt.Errorf("unknown algorithm %q, expected %s or %s", s, AlgoDistanceVector, AlgoLinkState)
	}
	return nil
}

func RunConfigValidator(cfg *RunCfg) error {
	err := AlgorithmValidator(cfg.Algorithm)
	if err != nil {
		return err
	}
	switch cfg.Horizon {
	case "", HorizonNone, HorizonSplit, HorizonPoison:
	default:
		return fmt.Errorf("unknown horizon mode %q", cfg.Horizon)
	}
	if cfg.Interval < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	return nil
}

func TopologyValidator(cfg *TopologyCfg) error {
	if len(cfg.Terminals) == 0 {
		return fmt.Errorf("topology must contain at least one terminal")
	}
	seen := make(map[NodeId]struct{})
	for _, node := range cfg.GetNodes() {
		err := NameValidator(string(node))
		if err != nil {
			return err
		}
		if _, ok := seen[node]; ok {
			return fmt.Errorf("duplicate node: %s", node)
		}
		seen[node] = struct{}{}
	}
	nodeRel := make([]Pair[NodeId, NodeId], 0)
	for _, link := range cfg.Links {
		if link.A == link.B {
			return fmt.Errorf("link %s-%s connects a node to itself", link.A, link.B)
		}
		for _, end := range []NodeId{link.A, link.B} {
			if _, ok := seen[end]; !ok {
				return fmt.Errorf("node %s not defined", end)
			}
		}
		edge := MakeSortedPair(link.A, link.B)
		if slices.Contains(nodeRel, edge) {
			return fmt.Errorf("duplicate link found: %s, %s", edge.V1, edge.V2)
		}
		nodeRel = append(nodeRel, edge)
		if _, err := ParseDelay(link.Delay); err != nil {
			return fmt.Errorf("link %s-%s: %w", link.A, link.B, err)
		}
	}
	if cfg.GraphDelay != "" {
		if _, err := ParseDelay(cfg.GraphDelay); err != nil {
			return fmt.Errorf("graph_delay: %w", err)
		}
	}
	return nil
}

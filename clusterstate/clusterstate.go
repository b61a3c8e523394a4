// Package clusterstate implements a minimal parser for the space-separated
// "key:value" cluster state token format, scoped to exactly what the dummy
// storage provider needs: whether a given node is up. The real format
// (distribution bits, node groups, per-group capacities, bucket space
// overrides) is out of scope; see the original vdslib ClusterState
// tokenizer for the full grammar this is distilled from.
package clusterstate

import (
	"fmt"
	"strconv"
	"strings"
)

// State is a single node's reported state letter, as in the wire format:
// 'u' (up), 'd' (down), 'm' (maintenance), 'r' (retired), 's' (stopping),
// 'i' (initializing). Anything other than 'u' is treated as not usable for
// serving, matching nodeUp()'s boolean simplification.
type State byte

const (
	StateUp          State = 'u'
	StateDown        State = 'd'
	StateMaintenance State = 'm'
	StateRetired     State = 'r'
	StateStopping    State = 's'
	StateInitializing State = 'i'
)

// ClusterState is a parsed cluster state: a version, an overall cluster
// state letter, and a sparse map of per-node state overrides keyed by node
// index. Nodes not present in the map default to up, matching the original
// format's convention of only emitting tokens for nodes whose state differs
// from the default.
type ClusterState struct {
	Version      uint32
	Cluster      State
	nodeStates   map[uint16]State
}

// Parse parses a serialized cluster state of the form:
//
//	"version:1 cluster:u .0.s:u .1.s:d .2.s:m"
//
// Tokens are whitespace separated "key:value" pairs. Node-state tokens have
// the shape ".<index>.s:<state>". Unknown tokens are ignored rather than
// rejected, since the real format carries many fields (distribution bits,
// bucket space qualifiers) this package does not model.
func Parse(serialized string) (*ClusterState, error) {
	cs := &ClusterState{Cluster: StateUp, nodeStates: make(map[uint16]State)}
	fields := strings.Fields(serialized)
	for _, tok := range fields {
		idx := strings.Index(tok, ":")
		if idx < 0 {
			return nil, fmt.Errorf("clusterstate: token %q missing ':'", tok)
		}
		key := tok[:idx]
		val := tok[idx+1:]
		switch {
		case key == "version":
			v, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("clusterstate: bad version %q: %w", val, err)
			}
			cs.Version = uint32(v)
		case key == "cluster":
			if len(val) != 1 {
				return nil, fmt.Errorf("clusterstate: bad cluster state %q", val)
			}
			cs.Cluster = State(val[0])
		case strings.HasPrefix(key, ".") && strings.HasSuffix(key, ".s"):
			idxStr := strings.TrimSuffix(strings.TrimPrefix(key, "."), ".s")
			n, err := strconv.ParseUint(idxStr, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("clusterstate: bad node index in %q: %w", key, err)
			}
			if len(val) != 1 {
				return nil, fmt.Errorf("clusterstate: bad node state %q", val)
			}
			cs.nodeStates[uint16(n)] = State(val[0])
		}
	}
	return cs, nil
}

// NodeUp reports whether the given node index is usable for serving. A node
// with no explicit override is up; the overall cluster state being down
// forces every node down regardless of per-node overrides.
func (cs *ClusterState) NodeUp(nodeIndex uint16) bool {
	if cs == nil {
		return true
	}
	if cs.Cluster != StateUp {
		return false
	}
	if st, ok := cs.nodeStates[nodeIndex]; ok {
		return st == StateUp
	}
	return true
}

// Package dag provides the graph analysis the execution engine runs before
// dispatching agents: topological ordering and parent resolution over the
// canvas node/edge lists.
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/synapse-hq/synapse/pkg/models"
)

// CycleError reports that the workflow graph contains at least one cycle.
// Nodes holds the IDs that could not be ordered, sorted for stable messages.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("Workflow contains a cycle involving nodes: %s", strings.Join(e.Nodes, ", "))
}

// TopologicalOrder returns the node IDs in dependency order using Kahn's
// algorithm. Edges whose source or target is not a known node ID are ignored.
// Nodes of equal precedence are emitted in canvas order, so the result is
// stable for a given canvas. Returns a *CycleError when the graph cannot be
// fully ordered.
func TopologicalOrder(nodes []models.Node, edges []models.Edge) ([]string, error) {
	known := make(map[string]bool, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if !known[n.ID] {
			known[n.ID] = true
			ids = append(ids, n.ID)
		}
	}

	adjacency := make(map[string][]string, len(ids))
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(ids) {
		emitted := make(map[string]bool, len(order))
		for _, id := range order {
			emitted[id] = true
		}
		cyclic := make([]string, 0, len(ids)-len(order))
		for _, id := range ids {
			if !emitted[id] {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		return nil, &CycleError{Nodes: cyclic}
	}

	return order, nil
}

// ParentsOf returns the source of every edge targeting nodeID, in edge order.
func ParentsOf(nodeID string, edges []models.Edge) []string {
	var parents []string
	for _, e := range edges {
		if e.Target == nodeID {
			parents = append(parents, e.Source)
		}
	}
	return parents
}

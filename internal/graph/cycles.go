// Package graph detects and collapses debt cycles in a group's IOU graph.
package graph

import "github.com/mmynk/splitledger/internal/models"

// DetectCycle reports whether adding newEdge to edges would close a directed
// cycle. It searches the existing edges (newEdge excluded) for a path from
// newEdge.Creditor back to newEdge.Debtor using breadth-first search.
//
// The returned path is closed: creditor -> ... -> debtor -> creditor. A
// self-loop yields [x, x]. Nil means no cycle.
func DetectCycle(edges []models.Edge, newEdge models.Edge) []string {
	start := newEdge.Creditor
	target := newEdge.Debtor
	if start == target {
		return []string{start, start}
	}

	adjacency := make(map[string][]string)
	for _, e := range edges {
		adjacency[e.Debtor] = append(adjacency[e.Debtor], e.Creditor)
	}

	// parents doubles as the visited set; the start node has no parent.
	parents := map[string]string{start: ""}
	queue := []string{start}
	found := false

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == target {
			found = true
			break
		}
		for _, next := range adjacency[node] {
			if _, seen := parents[next]; seen {
				continue
			}
			parents[next] = node
			queue = append(queue, next)
		}
	}

	if !found {
		return nil
	}

	var path []string
	for cursor := target; ; cursor = parents[cursor] {
		path = append(path, cursor)
		if cursor == start {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, start)
}

package proctree

import "sort"

// ProcessInfo is one sampled process. Values are recreated every refresh
// cycle and never mutated after construction.
type ProcessInfo struct {
	PID         int32
	PPID        int32
	Command     string
	CPUPercent  float64
	MemoryBytes uint64
}

// ProcessNode is a ProcessInfo plus its children, ordered by PID.
// Parents own their children; there are no back-pointers.
type ProcessNode struct {
	ProcessInfo
	Children []*ProcessNode
}

// Walk visits n and all of its descendants in pre-order.
// Returning false from fn stops descent into that node's children.
func (n *ProcessNode) Walk(fn func(node *ProcessNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *ProcessNode) walk(fn func(*ProcessNode, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of processes in the tree rooted at n.
func (n *ProcessNode) Count() int {
	count := 0
	n.Walk(func(*ProcessNode, int) bool {
		count++
		return true
	})
	return count
}

// Find returns the node with the given pid, or nil.
func (n *ProcessNode) Find(pid int32) *ProcessNode {
	var found *ProcessNode
	n.Walk(func(node *ProcessNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.PID == pid {
			found = node
			return false
		}
		return true
	})
	return found
}

// PIDs returns the set of pids in the tree rooted at n.
func (n *ProcessNode) PIDs(into map[int32]struct{}) {
	n.Walk(func(node *ProcessNode, _ int) bool {
		into[node.PID] = struct{}{}
		return true
	})
}

func sortChildren(children []*ProcessNode) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].PID < children[j].PID
	})
}

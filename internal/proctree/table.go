package proctree

import "sort"

// Table is a parent to children index of the whole process table, read once
// per refresh cycle and shared read-only by every tree walk of that cycle.
type Table map[int32][]int32

// NewTable builds the index from a pid to ppid mapping. Children are sorted
// by pid. A process listed as its own parent is ignored.
func NewTable(parents map[int32]int32) Table {
	t := make(Table, len(parents))
	for pid, ppid := range parents {
		if pid == ppid {
			continue
		}
		t[ppid] = append(t[ppid], pid)
	}
	for _, children := range t {
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	}
	return t
}

// Children returns the direct children of pid.
func (t Table) Children(pid int32) []int32 {
	return t[pid]
}

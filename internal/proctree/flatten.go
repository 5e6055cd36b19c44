package proctree

import "strings"

// Tree connectors drawn in front of nested commands.
const (
	connectorMid  = "├── "
	connectorLast = "└── "
	guideOpen     = "│   "
	guideBlank    = "    "
)

// Row is one line of a flattened forest.
type Row struct {
	Node   *ProcessNode
	Depth  int
	Prefix string // tree connectors, empty for forest roots
}

// Flatten lists the forest in pre-order: each parent immediately followed by
// its children. Roots have depth 0 and no prefix.
func Flatten(forest []*ProcessNode) []Row {
	var rows []Row
	for _, root := range forest {
		rows = flatten(rows, root, 0, nil, false)
	}
	return rows
}

// guides[i] reports whether the ancestor at depth i+1 has later siblings,
// i.e. whether a vertical guide continues through this row at that column.
func flatten(rows []Row, n *ProcessNode, depth int, guides []bool, last bool) []Row {
	if n == nil {
		return rows
	}

	var prefix string
	if depth > 0 {
		var b strings.Builder
		for _, open := range guides {
			if open {
				b.WriteString(guideOpen)
			} else {
				b.WriteString(guideBlank)
			}
		}
		if last {
			b.WriteString(connectorLast)
		} else {
			b.WriteString(connectorMid)
		}
		prefix = b.String()
	}

	rows = append(rows, Row{Node: n, Depth: depth, Prefix: prefix})

	var childGuides []bool
	if depth > 0 {
		childGuides = make([]bool, len(guides), len(guides)+1)
		copy(childGuides, guides)
		childGuides = append(childGuides, !last)
	}

	for i, c := range n.Children {
		rows = flatten(rows, c, depth+1, childGuides, i == len(n.Children)-1)
	}
	return rows
}

// IndexOf returns the row index holding pid, or -1.
func IndexOf(rows []Row, pid int32) int {
	for i, r := range rows {
		if r.Node.PID == pid {
			return i
		}
	}
	return -1
}

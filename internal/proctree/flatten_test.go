package proctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(pid int32, cmd string, children ...*ProcessNode) *ProcessNode {
	for _, c := range children {
		c.PPID = pid
	}
	return &ProcessNode{
		ProcessInfo: ProcessInfo{PID: pid, Command: cmd},
		Children:    children,
	}
}

func TestFlatten_PreOrder(t *testing.T) {
	forest := []*ProcessNode{
		node(100, "bash",
			node(101, "make",
				node(103, "cc"),
			),
			node(102, "vim"),
		),
		node(200, "zsh"),
	}

	rows := Flatten(forest)
	require.Len(t, rows, 5)

	var pids []int32
	var depths []int
	for _, r := range rows {
		pids = append(pids, r.Node.PID)
		depths = append(depths, r.Depth)
	}
	assert.Equal(t, []int32{100, 101, 103, 102, 200}, pids)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)
}

func TestFlatten_Connectors(t *testing.T) {
	forest := []*ProcessNode{
		node(100, "bash",
			node(101, "make",
				node(103, "cc"),
				node(104, "ld"),
			),
			node(102, "vim",
				node(105, "python"),
			),
		),
	}

	rows := Flatten(forest)
	prefixes := make(map[int32]string)
	for _, r := range rows {
		prefixes[r.Node.PID] = r.Prefix
	}

	assert.Equal(t, "", prefixes[100])
	assert.Equal(t, "├── ", prefixes[101])
	assert.Equal(t, "│   ├── ", prefixes[103])
	assert.Equal(t, "│   └── ", prefixes[104])
	assert.Equal(t, "└── ", prefixes[102])
	assert.Equal(t, "    └── ", prefixes[105])
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten([]*ProcessNode{nil}))
}

func TestIndexOf(t *testing.T) {
	rows := Flatten([]*ProcessNode{node(1, "a", node(2, "b"))})

	assert.Equal(t, 1, IndexOf(rows, 2))
	assert.Equal(t, -1, IndexOf(rows, 3))
}

func TestProcessNode_Helpers(t *testing.T) {
	root := node(1, "a", node(2, "b", node(4, "d")), node(3, "c"))

	assert.Equal(t, 4, root.Count())
	require.NotNil(t, root.Find(4))
	assert.Equal(t, "d", root.Find(4).Command)
	assert.Nil(t, root.Find(9))

	seen := make(map[int32]struct{})
	root.PIDs(seen)
	assert.Len(t, seen, 4)

	var nilNode *ProcessNode
	assert.Equal(t, 0, nilNode.Count())
}

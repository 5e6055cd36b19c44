package proctree_test

import (
	"testing"

	"github.com/rileyhilliard/tmuxmon/internal/proctree"
	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	table := proctree.NewTable(map[int32]int32{
		1:   0,
		100: 1,
		103: 100,
		101: 100,
		102: 100,
		7:   7, // own parent
	})

	assert.Equal(t, []int32{101, 102, 103}, table.Children(100))
	assert.Equal(t, []int32{1}, table.Children(0))
	assert.Equal(t, []int32{100}, table.Children(1))
	assert.Empty(t, table.Children(7))
	assert.Empty(t, table.Children(999))
}

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardOpening(t *testing.T) {
	b := NewBoard()

	// 黑方在上（小写），红方在下（大写）
	assert.Equal(t, "k", b.At(Position{Row: 0, Col: 4}))
	assert.Equal(t, "K", b.At(Position{Row: 9, Col: 4}))
	assert.Equal(t, "r", b.At(Position{Row: 0, Col: 0}))
	assert.Equal(t, "R", b.At(Position{Row: 9, Col: 0}))
	assert.Equal(t, "c", b.At(Position{Row: 2, Col: 1}))
	assert.Equal(t, "C", b.At(Position{Row: 7, Col: 1}))
	assert.Equal(t, "p", b.At(Position{Row: 3, Col: 0}))
	assert.Equal(t, "P", b.At(Position{Row: 6, Col: 0}))
	assert.Equal(t, "", b.At(Position{Row: 4, Col: 4}))
}

func TestNewBoardIsCopy(t *testing.T) {
	b := NewBoard()
	b[9][4] = ""

	// 修改一个实例不影响下一个开局棋盘
	fresh := NewBoard()
	assert.Equal(t, "K", fresh.At(Position{Row: 9, Col: 4}))
}

func TestBoardApply(t *testing.T) {
	b := NewBoard()
	b.Apply(Position{Row: 6, Col: 0}, Position{Row: 5, Col: 0})

	assert.Equal(t, "", b.At(Position{Row: 6, Col: 0}))
	assert.Equal(t, "P", b.At(Position{Row: 5, Col: 0}))
}

func TestBoardClone(t *testing.T) {
	b := NewBoard()
	c := b.Clone()
	c.Apply(Position{Row: 6, Col: 0}, Position{Row: 5, Col: 0})

	assert.Equal(t, "P", b.At(Position{Row: 6, Col: 0}))
	assert.Equal(t, "", c.At(Position{Row: 6, Col: 0}))
}

func TestBoardSerializeParse(t *testing.T) {
	b := NewBoard()
	b.Apply(Position{Row: 7, Col: 1}, Position{Row: 4, Col: 1})

	data, err := b.Serialize()
	require.NoError(t, err)

	parsed, err := ParseBoard(data)
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
}

func TestParseBoardRejectsMalformed(t *testing.T) {
	_, err := ParseBoard("not json")
	assert.Error(t, err)

	// 行数不对
	_, err = ParseBoard(`[["",""],["",""]]`)
	assert.Error(t, err)

	// 列数不对
	_, err = ParseBoard(`[[],[],[],[],[],[],[],[],[],[]]`)
	assert.Error(t, err)
}

func TestPositionInBoard(t *testing.T) {
	assert.True(t, Position{Row: 0, Col: 0}.InBoard())
	assert.True(t, Position{Row: 9, Col: 8}.InBoard())
	assert.False(t, Position{Row: -1, Col: 0}.InBoard())
	assert.False(t, Position{Row: 10, Col: 0}.InBoard())
	assert.False(t, Position{Row: 0, Col: 9}.InBoard())
}

func TestSideHelpers(t *testing.T) {
	assert.True(t, IsRed("K"))
	assert.False(t, IsRed("k"))
	assert.False(t, IsRed(""))

	assert.Equal(t, SideRed, SideOf("P"))
	assert.Equal(t, SideBlack, SideOf("p"))

	assert.True(t, SameSide("R", "K"))
	assert.True(t, SameSide("r", "k"))
	assert.False(t, SameSide("R", "k"))
	assert.False(t, SameSide("", "k"))

	assert.Equal(t, SideBlack, SideRed.Opponent())
	assert.Equal(t, SideRed, SideBlack.Opponent())
}

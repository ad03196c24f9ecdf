package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// put 在空棋盘上摆子
func put(pieces map[Position]string) *Board {
	b := &Board{}
	for pos, piece := range pieces {
		b[pos.Row][pos.Col] = piece
	}
	return b
}

func TestOpeningPosition(t *testing.T) {
	b := NewBoard()

	assert.False(t, IsKingInCheck(b, SideRed))
	assert.False(t, IsKingInCheck(b, SideBlack))
	assert.True(t, HasLegalMoves(b, SideRed))
	assert.True(t, HasLegalMoves(b, SideBlack))
}

func TestOpeningMoves(t *testing.T) {
	b := NewBoard()

	tests := []struct {
		name  string
		from  Position
		to    Position
		valid bool
	}{
		{"红兵进一", Position{6, 0}, Position{5, 0}, true},
		{"红兵后退", Position{6, 0}, Position{7, 0}, false},
		{"红兵未过河横走", Position{6, 0}, Position{6, 1}, false},
		{"红马起手", Position{9, 1}, Position{7, 2}, true},
		{"红马边路", Position{9, 1}, Position{7, 0}, true},
		{"红马非日字", Position{9, 1}, Position{7, 1}, false},
		{"红车被兵挡住", Position{9, 0}, Position{5, 0}, false},
		{"红车一步", Position{9, 0}, Position{8, 0}, true},
		{"红炮平中", Position{7, 1}, Position{7, 4}, true},
		{"红炮隔子打马", Position{7, 1}, Position{0, 1}, true},
		{"红炮无架吃炮", Position{7, 1}, Position{2, 1}, false},
		{"红相起手", Position{9, 2}, Position{7, 4}, true},
		{"红仕起手", Position{9, 3}, Position{8, 4}, true},
		{"红仕出宫", Position{9, 3}, Position{8, 2}, false},
		{"红帅进一", Position{9, 4}, Position{8, 4}, true},
		{"红帅斜走", Position{9, 4}, Position{8, 3}, false},
		{"原地不动", Position{9, 0}, Position{9, 0}, false},
		{"起点无子", Position{5, 5}, Position{4, 5}, false},
		{"吃己方棋子", Position{9, 0}, Position{6, 0}, false},
		{"越界", Position{9, 0}, Position{10, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidMove(b, tt.from, tt.to))
		})
	}
}

func TestCannonRequiresStraightLine(t *testing.T) {
	b := put(map[Position]string{
		{5, 5}: "C",
		{0, 4}: "k",
		{9, 3}: "K",
	})

	assert.False(t, IsValidMove(b, Position{5, 5}, Position{4, 4}))
	assert.True(t, IsValidMove(b, Position{5, 5}, Position{4, 5}))
}

func TestCannonScreenCount(t *testing.T) {
	// 炮与目标之间两个子时不能吃
	b := put(map[Position]string{
		{5, 0}: "C",
		{4, 0}: "P",
		{3, 0}: "p",
		{2, 0}: "r",
		{0, 4}: "k",
		{9, 3}: "K",
	})
	assert.False(t, IsValidMove(b, Position{5, 0}, Position{2, 0}))

	// 只留一个炮架就可以
	b[3][0] = ""
	assert.True(t, IsValidMove(b, Position{5, 0}, Position{2, 0}))
}

func TestHorseLegBlocked(t *testing.T) {
	b := NewBoard()
	// 在马腿位置放子
	b[8][1] = "C"
	assert.False(t, IsValidMove(b, Position{9, 1}, Position{7, 2}))
	assert.False(t, IsValidMove(b, Position{9, 1}, Position{7, 0}))
}

func TestElephantRules(t *testing.T) {
	b := NewBoard()

	// 塞象眼
	b[8][3] = "C"
	assert.False(t, IsValidMove(b, Position{9, 2}, Position{7, 4}))
	assert.True(t, IsValidMove(b, Position{9, 2}, Position{7, 0}))

	// 象不得过河
	b2 := put(map[Position]string{
		{4, 2}: "e",
		{0, 4}: "k",
		{9, 4}: "K",
	})
	assert.False(t, IsValidMove(b2, Position{4, 2}, Position{6, 4}))
	assert.True(t, IsValidMove(b2, Position{4, 2}, Position{2, 4}))

	// 红相不得过河（目标行小于5）
	b3 := put(map[Position]string{
		{5, 2}: "E",
		{0, 4}: "k",
		{9, 4}: "K",
	})
	assert.False(t, IsValidMove(b3, Position{5, 2}, Position{3, 4}))
	assert.True(t, IsValidMove(b3, Position{5, 2}, Position{7, 4}))
}

func TestPawnAfterCrossingRiver(t *testing.T) {
	b := put(map[Position]string{
		{4, 0}: "P", // 已过河的红兵
		{0, 4}: "k",
		{9, 3}: "K",
	})

	assert.True(t, IsValidMove(b, Position{4, 0}, Position{3, 0}))
	assert.True(t, IsValidMove(b, Position{4, 0}, Position{4, 1}))
	assert.False(t, IsValidMove(b, Position{4, 0}, Position{5, 0}))
}

func TestFlyingKingRule(t *testing.T) {
	b := put(map[Position]string{
		{0, 4}: "k",
		{9, 4}: "K",
		{5, 4}: "P", // 中间有子，暂不对脸
	})

	// 中间有遮挡时同列合法
	assert.False(t, kingsFacing(b))
	assert.True(t, IsValidMove(b, Position{9, 4}, Position{8, 4}))

	// 去掉遮挡子后同列对脸，禁止
	open := put(map[Position]string{
		{0, 4}: "k",
		{9, 4}: "K",
	})
	assert.True(t, kingsFacing(open))
	assert.False(t, IsValidMove(open, Position{9, 4}, Position{8, 4}))
	assert.True(t, IsValidMove(open, Position{9, 4}, Position{9, 3}))
}

func TestMoveIntoCheckRejected(t *testing.T) {
	b := put(map[Position]string{
		{9, 4}: "K",
		{0, 3}: "r", // 黑车守3路
		{0, 5}: "k",
	})

	// 走进黑车射线是送将
	assert.False(t, IsValidMove(b, Position{9, 4}, Position{9, 3}))
	assert.True(t, IsValidMove(b, Position{9, 4}, Position{8, 4}))
}

func TestKingInCheckDetection(t *testing.T) {
	b := put(map[Position]string{
		{9, 4}: "K",
		{5, 4}: "r",
		{0, 3}: "k",
	})

	assert.True(t, IsKingInCheck(b, SideRed))
	assert.False(t, IsKingInCheck(b, SideBlack))
}

func TestCheckmate(t *testing.T) {
	// 双车错：黑将无路可走且被将军
	b := put(map[Position]string{
		{0, 4}: "k",
		{0, 8}: "R",
		{1, 8}: "R",
		{9, 3}: "K",
	})

	assert.True(t, IsKingInCheck(b, SideBlack))
	assert.False(t, HasLegalMoves(b, SideBlack))
	assert.True(t, HasLegalMoves(b, SideRed))
}

func TestStalemate(t *testing.T) {
	// 黑方未被将军但所有着法都会送将（困毙）
	b := put(map[Position]string{
		{0, 4}: "k",
		{2, 2}: "H", // 封(0,3)与(1,4)
		{9, 5}: "R", // 封(0,5)
		{9, 4}: "K",
		{8, 4}: "A", // 挡住将帅对脸
	})

	assert.False(t, IsKingInCheck(b, SideBlack))
	assert.False(t, HasLegalMoves(b, SideBlack))
}

func TestCaptureResolvesCheck(t *testing.T) {
	b := put(map[Position]string{
		{9, 4}: "K",
		{8, 4}: "r", // 贴脸将军
		{0, 3}: "k",
	})

	assert.True(t, IsKingInCheck(b, SideRed))
	// 吃掉将军的车即可解将
	assert.True(t, IsValidMove(b, Position{9, 4}, Position{8, 4}))
	assert.True(t, HasLegalMoves(b, SideRed))
}

package game

import (
	"encoding/json"
	"unicode"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
)

// 棋盘尺寸：10行9列
const (
	Rows = 10
	Cols = 9
)

// Side 阵营：红方（大写棋子，先手）或黑方（小写棋子，后手）
type Side string

const (
	SideRed   Side = "red"
	SideBlack Side = "black"
)

// Opponent 返回对方阵营
func (s Side) Opponent() Side {
	if s == SideRed {
		return SideBlack
	}
	return SideRed
}

// Position 棋盘坐标，row∈[0,9]，col∈[0,8]
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBoard 坐标是否在棋盘内
func (p Position) InBoard() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Board 棋盘。每格为单字符棋子代号或空串，
// 大写为红方（R车 H马 E相 A仕 K帅 C炮 P兵），小写为黑方。
// 红方位于7-9行一侧（九宫为3-5列、7-9行），黑方位于0-2行一侧。
type Board [Rows][Cols]string

// initialBoard 开局摆法
var initialBoard = Board{
	{"r", "h", "e", "a", "k", "a", "e", "h", "r"},
	{"", "", "", "", "", "", "", "", ""},
	{"", "c", "", "", "", "", "", "c", ""},
	{"p", "", "p", "", "p", "", "p", "", "p"},
	{"", "", "", "", "", "", "", "", ""},
	{"", "", "", "", "", "", "", "", ""},
	{"P", "", "P", "", "P", "", "P", "", "P"},
	{"", "C", "", "", "", "", "", "C", ""},
	{"", "", "", "", "", "", "", "", ""},
	{"R", "H", "E", "A", "K", "A", "E", "H", "R"},
}

// NewBoard 返回开局棋盘
func NewBoard() *Board {
	b := initialBoard
	return &b
}

// At 返回坐标处的棋子代号，空格为空串
func (b *Board) At(p Position) string {
	return b[p.Row][p.Col]
}

// Apply 把from处棋子移到to处（覆盖目标格，清空原格）
func (b *Board) Apply(from, to Position) {
	b[to.Row][to.Col] = b[from.Row][from.Col]
	b[from.Row][from.Col] = ""
}

// Clone 复制棋盘
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Serialize 序列化为JSON（与前端及AI引擎交换的二维数组格式）
func (b *Board) Serialize() (string, error) {
	rows := make([][]string, Rows)
	for i := range b {
		rows[i] = make([]string, Cols)
		copy(rows[i], b[i][:])
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrBoardSerialize)
	}
	return string(data), nil
}

// ParseBoard 从JSON解析棋盘
func ParseBoard(boardJSON string) (*Board, error) {
	var rows [][]string
	if err := json.Unmarshal([]byte(boardJSON), &rows); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrBoardParse)
	}
	if len(rows) != Rows {
		return nil, apperrors.Newf(apperrors.ErrBoardParse, "棋盘行数错误: %d", len(rows))
	}

	b := &Board{}
	for i, row := range rows {
		if len(row) != Cols {
			return nil, apperrors.Newf(apperrors.ErrBoardParse, "第%d行列数错误: %d", i, len(row))
		}
		copy(b[i][:], row)
	}
	return b, nil
}

// IsRed 棋子是否属于红方（大写）
func IsRed(piece string) bool {
	return piece != "" && unicode.IsUpper(rune(piece[0]))
}

// SideOf 返回棋子所属阵营
func SideOf(piece string) Side {
	if IsRed(piece) {
		return SideRed
	}
	return SideBlack
}

// SameSide 两个棋子是否同阵营
func SameSide(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return IsRed(a) == IsRed(b)
}

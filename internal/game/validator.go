package game

// 着法合法性校验。全部为无副作用的纯函数：
// IsValidMove 校验单步着法，HasLegalMoves 判断一方是否还有合法着法
// （将死/困毙检测），IsKingInCheck 判断一方是否被将军。

// IsValidMove 校验着法是否合法：
//  1. 起点必须有棋子，坐标在棋盘内，终点不能是己方棋子；
//  2. 在副本上模拟走子后，双方将帅不得在同一列无遮挡对脸；
//  3. 走子后己方不得处于被将军状态；
//  4. 按兵种规则校验走法本身。
func IsValidMove(b *Board, from, to Position) bool {
	if !from.InBoard() || !to.InBoard() {
		return false
	}

	piece := b.At(from)
	if piece == "" {
		return false
	}

	// 终点是己方棋子（含原地不动）
	if SameSide(piece, b.At(to)) {
		return false
	}

	// 模拟走子
	tmp := b.Clone()
	tmp.Apply(from, to)

	// 将帅对脸
	if kingsFacing(tmp) {
		return false
	}

	// 送将
	if IsKingInCheck(tmp, SideOf(piece)) {
		return false
	}

	return isValidPieceMove(b, from, to, piece)
}

// HasLegalMoves 一方是否还有任意合法着法，无则被将死或困毙
func HasLegalMoves(b *Board, side Side) bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			from := Position{Row: row, Col: col}
			piece := b.At(from)
			if piece == "" || SideOf(piece) != side {
				continue
			}
			for toRow := 0; toRow < Rows; toRow++ {
				for toCol := 0; toCol < Cols; toCol++ {
					if IsValidMove(b, from, Position{Row: toRow, Col: toCol}) {
						return true
					}
				}
			}
		}
	}
	return false
}

// IsKingInCheck 一方的将帅是否被对方任一棋子攻击。
// 只用兵种走法规则判定攻击，不做递归的送将校验。
func IsKingInCheck(b *Board, side Side) bool {
	kingPos, ok := findKing(b, side)
	if !ok {
		return false
	}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			from := Position{Row: row, Col: col}
			piece := b.At(from)
			if piece == "" || SideOf(piece) == side {
				continue
			}
			if isValidPieceMove(b, from, kingPos, piece) {
				return true
			}
		}
	}
	return false
}

// findKing 定位一方的将帅，始终在3-5列的九宫内
func findKing(b *Board, side Side) (Position, bool) {
	target := "k"
	if side == SideRed {
		target = "K"
	}
	for row := 0; row < Rows; row++ {
		for col := 3; col <= 5; col++ {
			if b[row][col] == target {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

// kingsFacing 双方将帅是否同列且中间无子（白脸将）
func kingsFacing(b *Board) bool {
	redKing, okRed := findKing(b, SideRed)
	blackKing, okBlack := findKing(b, SideBlack)
	if !okRed || !okBlack {
		return false
	}

	if redKing.Col != blackKing.Col {
		return false
	}

	for row := blackKing.Row + 1; row < redKing.Row; row++ {
		if b[row][redKing.Col] != "" {
			return false
		}
	}
	return true
}

// isValidPieceMove 按兵种规则校验走法（不含将军相关校验）
func isValidPieceMove(b *Board, from, to Position, piece string) bool {
	switch piece[0] | 0x20 { // 转小写
	case 'r':
		return isValidRookMove(b, from, to)
	case 'h':
		return isValidHorseMove(b, from, to)
	case 'c':
		return isValidCannonMove(b, from, to)
	case 'e':
		return isValidElephantMove(b, from, to, piece)
	case 'a':
		return isValidAdvisorMove(from, to, piece)
	case 'k':
		return isValidKingMove(from, to, piece)
	case 'p':
		return isValidPawnMove(from, to, piece)
	default:
		return false
	}
}

// isValidRookMove 车：直线移动，路径无子
func isValidRookMove(b *Board, from, to Position) bool {
	if from.Row == to.Row {
		return isPathClear(b, from.Row, from.Col, to.Col, true)
	}
	if from.Col == to.Col {
		return isPathClear(b, from.Col, from.Row, to.Row, false)
	}
	return false
}

// isPathClear 直线路径（不含端点）是否无子
func isPathClear(b *Board, fixed, start, end int, rowFixed bool) bool {
	min, max := start, end
	if min > max {
		min, max = max, min
	}
	for i := min + 1; i < max; i++ {
		var cell string
		if rowFixed {
			cell = b[fixed][i]
		} else {
			cell = b[i][fixed]
		}
		if cell != "" {
			return false
		}
	}
	return true
}

// isValidHorseMove 马：日字跳，蹩马腿检查
func isValidHorseMove(b *Board, from, to Position) bool {
	rowDiff := abs(to.Row - from.Row)
	colDiff := abs(to.Col - from.Col)

	if rowDiff == 2 && colDiff == 1 {
		return b[(from.Row+to.Row)/2][from.Col] == ""
	}
	if rowDiff == 1 && colDiff == 2 {
		return b[from.Row][(from.Col+to.Col)/2] == ""
	}
	return false
}

// isValidCannonMove 炮：直线移动时炮路无子，吃子时必须隔一个炮架
func isValidCannonMove(b *Board, from, to Position) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}

	isCapture := b.At(to) != ""
	count := countPiecesBetween(b, from, to)
	if isCapture {
		return count == 1
	}
	return count == 0
}

// countPiecesBetween 直线两点之间（不含端点）的棋子数
func countPiecesBetween(b *Board, from, to Position) int {
	count := 0
	if from.Row == to.Row {
		min, max := from.Col, to.Col
		if min > max {
			min, max = max, min
		}
		for i := min + 1; i < max; i++ {
			if b[from.Row][i] != "" {
				count++
			}
		}
	} else if from.Col == to.Col {
		min, max := from.Row, to.Row
		if min > max {
			min, max = max, min
		}
		for i := min + 1; i < max; i++ {
			if b[i][from.Col] != "" {
				count++
			}
		}
	}
	return count
}

// isValidElephantMove 相/象：田字斜走两格，不得过河，象眼无子
func isValidElephantMove(b *Board, from, to Position, piece string) bool {
	if abs(to.Row-from.Row) != 2 || abs(to.Col-from.Col) != 2 {
		return false
	}

	// 不得过河
	if IsRed(piece) {
		if to.Row < 5 {
			return false
		}
	} else if to.Row > 4 {
		return false
	}

	// 象眼
	midRow := (from.Row + to.Row) / 2
	midCol := (from.Col + to.Col) / 2
	return b[midRow][midCol] == ""
}

// isValidAdvisorMove 仕/士：九宫内斜走一格
func isValidAdvisorMove(from, to Position, piece string) bool {
	if abs(to.Row-from.Row) != 1 || abs(to.Col-from.Col) != 1 {
		return false
	}
	return inPalace(to, IsRed(piece))
}

// isValidKingMove 帅/将：九宫内直走一格
func isValidKingMove(from, to Position, piece string) bool {
	if abs(to.Row-from.Row)+abs(to.Col-from.Col) != 1 {
		return false
	}
	return inPalace(to, IsRed(piece))
}

// inPalace 坐标是否在一方的九宫内（3-5列，红方7-9行，黑方0-2行）
func inPalace(p Position, isRed bool) bool {
	if p.Col < 3 || p.Col > 5 {
		return false
	}
	if isRed {
		return p.Row >= 7 && p.Row <= 9
	}
	return p.Row >= 0 && p.Row <= 2
}

// isValidPawnMove 兵/卒：向前一格，过河后可横走一格
func isValidPawnMove(from, to Position, piece string) bool {
	// 红方向上（行号减小），黑方向下
	direction := 1
	if IsRed(piece) {
		direction = -1
	}
	crossedRiver := (IsRed(piece) && from.Row <= 4) || (!IsRed(piece) && from.Row >= 5)

	// 向前一格
	if to.Row == from.Row+direction && to.Col == from.Col {
		return true
	}

	// 过河后横走一格
	return crossedRiver && to.Row == from.Row && abs(to.Col-from.Col) == 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

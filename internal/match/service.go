package match

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/config"
	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
)

// MatchService 对局会话引擎。会话状态全部放在共享存储里，
// 服务本身无状态；开局、落子、超时三类入口都以存储为准。
type MatchService struct {
	state    *SessionStore
	locks    *store.LockManager
	matches  repository.MatchRepository
	players  repository.PlayerRepository
	notifier Notifier
	oracle   Oracle
	logger   *zap.Logger

	totalTime   time.Duration
	turnTime    time.Duration
	ratingDelta int

	now     func() time.Time
	pickRed func() bool
}

func NewMatchService(
	state *SessionStore,
	locks *store.LockManager,
	matches repository.MatchRepository,
	players repository.PlayerRepository,
	notifier Notifier,
	oracle Oracle,
	cfg config.MatchConfig,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		state:       state,
		locks:       locks,
		matches:     matches,
		players:     players,
		notifier:    notifier,
		oracle:      oracle,
		logger:      logger,
		totalTime:   cfg.TotalTime,
		turnTime:    cfg.TurnTime,
		ratingDelta: cfg.RatingDelta,
		now:         time.Now,
		pickRed:     func() bool { return rand.Intn(2) == 0 },
	}
}

// Create 创建新对局会话：随机分红黑、落持久化记录、
// 初始化全部会话键。走子限时从创建起即生效，双方迟迟不准备
// 会触发超时取消。
func (s *MatchService) Create(ctx context.Context, player1ID, player2ID int64) (int64, error) {
	redID, blackID := player1ID, player2ID
	if !s.pickRed() {
		redID, blackID = blackID, redID
	}
	return s.create(ctx, redID, blackID, "")
}

// CreateWithAI 创建人机对局：玩家执红，AI执黑且天然就绪
func (s *MatchService) CreateWithAI(ctx context.Context, playerID int64, aiMode string) (int64, error) {
	if aiMode != models.RoleAIEasy && aiMode != models.RoleAIHard {
		return 0, apperrors.New(apperrors.ErrInvalidParam, "无效的AI难度")
	}
	aiID, err := s.players.FindIDByRole(ctx, aiMode)
	if err != nil {
		return 0, err
	}
	return s.create(ctx, playerID, aiID, aiMode)
}

func (s *MatchService) create(ctx context.Context, redID, blackID int64, aiMode string) (int64, error) {
	redName, err := s.players.UsernameOf(ctx, redID)
	if err != nil {
		return 0, err
	}
	blackName, err := s.players.UsernameOf(ctx, blackID)
	if err != nil {
		return 0, err
	}
	redRating, err := s.players.RatingOf(ctx, redID)
	if err != nil {
		return 0, err
	}
	blackRating, err := s.players.RatingOf(ctx, blackID)
	if err != nil {
		return 0, err
	}

	matchID, err := s.matches.CreateMatchRecord(ctx, redID, blackID)
	if err != nil {
		return 0, err
	}

	boardJSON, err := game.NewBoard().Serialize()
	if err != nil {
		return 0, err
	}

	steps := []error{
		s.state.SaveBoard(ctx, matchID, boardJSON),
		s.state.SavePlayerID(ctx, matchID, game.SideRed, redID),
		s.state.SavePlayerID(ctx, matchID, game.SideBlack, blackID),
		s.state.SaveTurn(ctx, matchID, redID),
		s.state.SavePlayerName(ctx, matchID, game.SideRed, redName),
		s.state.SavePlayerName(ctx, matchID, game.SideBlack, blackName),
		s.state.SavePlayerRating(ctx, matchID, game.SideRed, redRating),
		s.state.SavePlayerRating(ctx, matchID, game.SideBlack, blackRating),
		s.state.SaveTimeLeft(ctx, matchID, game.SideRed, s.totalTime),
		s.state.SaveTimeLeft(ctx, matchID, game.SideBlack, s.totalTime),
		s.state.SaveReadyStatus(ctx, matchID, game.SideRed, false),
		s.state.SaveReadyStatus(ctx, matchID, game.SideBlack, false),
		s.state.ArmTurnDeadline(ctx, matchID, s.turnTime),
	}
	if aiMode != "" {
		steps = append(steps, s.state.SaveAIMode(ctx, matchID, aiMode))
	}
	for _, err := range steps {
		if err != nil {
			return 0, err
		}
	}

	s.logger.Info("对局会话已创建",
		zap.Int64("matchId", matchID),
		zap.Int64("redPlayerId", redID),
		zap.Int64("blackPlayerId", blackID),
		zap.String("aiMode", aiMode))
	return matchID, nil
}

// State 读取对局快照
func (s *MatchService) State(ctx context.Context, matchID int64) (*MatchState, error) {
	boardJSON, ok, err := s.state.Board(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.ErrMatchNotFound)
	}
	board, err := game.ParseBoard(boardJSON)
	if err != nil {
		return nil, err
	}

	st := &MatchState{MatchID: matchID, Board: board}
	if st.RedPlayerID, _, err = s.state.PlayerID(ctx, matchID, game.SideRed); err != nil {
		return nil, err
	}
	if st.BlackPlayerID, _, err = s.state.PlayerID(ctx, matchID, game.SideBlack); err != nil {
		return nil, err
	}
	if st.Turn, _, err = s.state.Turn(ctx, matchID); err != nil {
		return nil, err
	}
	if st.RedPlayerName, _, err = s.state.PlayerName(ctx, matchID, game.SideRed); err != nil {
		return nil, err
	}
	if st.BlackPlayerName, _, err = s.state.PlayerName(ctx, matchID, game.SideBlack); err != nil {
		return nil, err
	}
	if st.RedPlayerRating, _, err = s.state.PlayerRating(ctx, matchID, game.SideRed); err != nil {
		return nil, err
	}
	if st.BlackPlayerRating, _, err = s.state.PlayerRating(ctx, matchID, game.SideBlack); err != nil {
		return nil, err
	}
	redLeft, _, err := s.state.TimeLeft(ctx, matchID, game.SideRed)
	if err != nil {
		return nil, err
	}
	blackLeft, _, err := s.state.TimeLeft(ctx, matchID, game.SideBlack)
	if err != nil {
		return nil, err
	}
	st.RedTimeLeft = redLeft.Milliseconds()
	st.BlackTimeLeft = blackLeft.Milliseconds()
	if last, ok, err := s.state.LastMoveTime(ctx, matchID); err != nil {
		return nil, err
	} else if ok {
		st.LastMoveTime = &last
	}
	return st, nil
}

// Ready 玩家就绪。对手也就绪时，持锁二次校验后唯一一次启动计时，
// 两路就绪同时到达也只会开局一次。
func (s *MatchService) Ready(ctx context.Context, matchID, actorID int64) error {
	redID, ok, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrMatchNotFound)
	}
	blackID, _, err := s.state.PlayerID(ctx, matchID, game.SideBlack)
	if err != nil {
		return err
	}

	var side game.Side
	switch actorID {
	case redID:
		side = game.SideRed
	case blackID:
		side = game.SideBlack
	default:
		return apperrors.New(apperrors.ErrMatchForbidden, "玩家不在该对局中")
	}
	if err := s.state.SaveReadyStatus(ctx, matchID, side, true); err != nil {
		return err
	}

	// AI对手不会发就绪请求，按角色识别后替它置位
	opponentID := blackID
	if side == game.SideBlack {
		opponentID = redID
	}
	role, err := s.players.RoleOf(ctx, opponentID)
	if err != nil {
		return err
	}
	if models.IsAIRole(role) {
		if err := s.state.SaveReadyStatus(ctx, matchID, side.Opponent(), true); err != nil {
			return err
		}
	}

	return s.locks.WithLock(ctx, matchInitialLockName(matchID), func() error {
		if _, ok, err := s.state.LastMoveTime(ctx, matchID); err != nil {
			return err
		} else if ok {
			// 已有人开过局
			return nil
		}
		opponentReady, _, err := s.state.ReadyStatus(ctx, matchID, side.Opponent())
		if err != nil {
			return err
		}
		if !opponentReady {
			return nil
		}
		return s.start(ctx, matchID, redID, blackID)
	})
}

// start 启动计时并推送开局快照，调用方需持有 matchInitial 锁
func (s *MatchService) start(ctx context.Context, matchID, redID, blackID int64) error {
	if err := s.state.SaveLastMoveTime(ctx, matchID, s.now()); err != nil {
		return err
	}
	if err := s.state.ArmTurnDeadline(ctx, matchID, s.turnTime); err != nil {
		return err
	}
	if err := s.state.ArmTotalDeadline(ctx, matchID, s.totalTime); err != nil {
		return err
	}
	snapshot, err := s.State(ctx, matchID)
	if err != nil {
		return err
	}
	event := Event{Status: StatusOK, Message: "The match is start.", Data: snapshot}
	s.notifier.NotifyPlayer(redID, ChannelMatch, event)
	s.notifier.NotifyPlayer(blackID, ChannelMatch, event)
	s.logger.Info("对局开始", zap.Int64("matchId", matchID))
	return nil
}

// Move 玩家落子。校验轮次与走法，更新棋盘、计时与轮转；
// 对手无合法着法即终局。人机对局里玩家落子后同步向AI求着。
func (s *MatchService) Move(ctx context.Context, matchID, actorID int64, from, to game.Position) error {
	moverSide, opponentID, err := s.applyMove(ctx, matchID, actorID, from, to, false)
	if err != nil {
		return err
	}
	if moverSide == "" {
		// 终局，无需AI应着
		return nil
	}

	aiMode, ok, err := s.state.AIMode(ctx, matchID)
	if err != nil {
		return err
	}
	if !ok || moverSide != game.SideRed {
		return nil
	}
	return s.aiReply(ctx, matchID, opponentID, aiMode)
}

// aiReply 向引擎求黑方应着并以特权身份落子（跳过轮次归属校验）
func (s *MatchService) aiReply(ctx context.Context, matchID, aiID int64, aiMode string) error {
	boardJSON, ok, err := s.state.Board(ctx, matchID)
	if err != nil || !ok {
		return err
	}
	board, err := game.ParseBoard(boardJSON)
	if err != nil {
		return err
	}
	from, to, err := s.oracle.RequestMove(ctx, board, aiMode)
	if err != nil {
		s.logger.Error("AI引擎求着失败", zap.Int64("matchId", matchID), zap.Error(err))
		return nil
	}
	if _, _, err := s.applyMove(ctx, matchID, aiID, from, to, true); err != nil {
		s.logger.Error("AI走法被规则拒绝",
			zap.Int64("matchId", matchID),
			zap.Any("from", from),
			zap.Any("to", to),
			zap.Error(err))
	}
	return nil
}

// applyMove 落子主流程。返回行棋方与下一手玩家ID；
// 本手直接终局时返回空阵营。privileged 用于AI应着，免轮次归属校验。
func (s *MatchService) applyMove(ctx context.Context, matchID, actorID int64, from, to game.Position, privileged bool) (game.Side, int64, error) {
	boardJSON, ok, err := s.state.Board(ctx, matchID)
	if err != nil {
		return "", 0, err
	}
	if !ok {
		return "", 0, apperrors.New(apperrors.ErrMatchNotFound)
	}
	board, err := game.ParseBoard(boardJSON)
	if err != nil {
		return "", 0, err
	}

	redID, _, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		return "", 0, err
	}
	blackID, _, err := s.state.PlayerID(ctx, matchID, game.SideBlack)
	if err != nil {
		return "", 0, err
	}
	turn, _, err := s.state.Turn(ctx, matchID)
	if err != nil {
		return "", 0, err
	}
	lastMove, started, err := s.state.LastMoveTime(ctx, matchID)
	if err != nil {
		return "", 0, err
	}
	if !started {
		return "", 0, apperrors.New(apperrors.ErrMatchNotReady)
	}

	// 坐标先校验再读盘，请求体和AI回复里的坐标都不可信
	if !from.InBoard() || !to.InBoard() {
		return "", 0, apperrors.New(apperrors.ErrInvalidMove, "坐标越界")
	}
	piece := board.At(from)
	if piece == "" {
		return "", 0, apperrors.New(apperrors.ErrInvalidMove, "起点无棋子")
	}
	moverSide := game.SideOf(piece)
	moverID := redID
	if moverSide == game.SideBlack {
		moverID = blackID
	}
	if !privileged {
		if actorID != moverID || actorID != turn {
			return "", 0, apperrors.New(apperrors.ErrInvalidMove, "不是你的回合或棋子")
		}
	}
	if !game.IsValidMove(board, from, to) {
		return "", 0, apperrors.New(apperrors.ErrInvalidMove)
	}

	board.Apply(from, to)
	newJSON, err := board.Serialize()
	if err != nil {
		return "", 0, err
	}
	if err := s.state.SaveBoard(ctx, matchID, newJSON); err != nil {
		return "", 0, err
	}

	opponentID := blackID
	if moverSide == game.SideBlack {
		opponentID = redID
	}
	if err := s.state.SaveTurn(ctx, matchID, opponentID); err != nil {
		return "", 0, err
	}

	now := s.now()
	elapsed := now.Sub(lastMove)
	moverLeft, _, err := s.state.TimeLeft(ctx, matchID, moverSide)
	if err != nil {
		return "", 0, err
	}
	moverLeft -= elapsed
	if moverLeft < 0 {
		moverLeft = 0
	}
	if err := s.state.SaveTimeLeft(ctx, matchID, moverSide, moverLeft); err != nil {
		return "", 0, err
	}
	if err := s.state.SaveLastMoveTime(ctx, matchID, now); err != nil {
		return "", 0, err
	}

	event := Event{Status: StatusOK, Message: "Piece moved.", Data: MoveEvent{From: from, To: to}}
	s.notifier.NotifyPlayer(redID, ChannelMatch, event)
	s.notifier.NotifyPlayer(blackID, ChannelMatch, event)

	// 对手被将死或困毙，本手即终局
	if !game.HasLegalMoves(board, moverSide.Opponent()) {
		if err := s.endMatch(ctx, matchID, opponentID); err != nil {
			return "", 0, err
		}
		return "", 0, nil
	}

	opponentLeft, _, err := s.state.TimeLeft(ctx, matchID, moverSide.Opponent())
	if err != nil {
		return "", 0, err
	}
	// 对手总时长已耗尽，TTL为0的限时键永不触发，直接按超时终局
	if opponentLeft <= 0 {
		if err := s.endMatch(ctx, matchID, opponentID); err != nil {
			return "", 0, err
		}
		return "", 0, nil
	}
	if err := s.state.ArmTurnDeadline(ctx, matchID, s.turnTime); err != nil {
		return "", 0, err
	}
	if err := s.state.ArmTotalDeadline(ctx, matchID, opponentLeft); err != nil {
		return "", 0, err
	}
	return moverSide, opponentID, nil
}

// Resign 认输，只允许行棋方在自己回合内认输
func (s *MatchService) Resign(ctx context.Context, matchID, actorID int64) error {
	redID, ok, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrMatchNotFound)
	}
	blackID, _, err := s.state.PlayerID(ctx, matchID, game.SideBlack)
	if err != nil {
		return err
	}
	if actorID != redID && actorID != blackID {
		return apperrors.New(apperrors.ErrMatchForbidden, "玩家不在该对局中")
	}
	turn, _, err := s.state.Turn(ctx, matchID)
	if err != nil {
		return err
	}
	if actorID != turn {
		return apperrors.New(apperrors.ErrInvalidResign)
	}
	s.logger.Info("玩家认输", zap.Int64("matchId", matchID), zap.Int64("playerId", actorID))
	return s.endMatch(ctx, matchID, actorID)
}

// HandleTimeout 限时键过期回调。已开局判当前行棋方超时负，
// 未开局（无人落子且未启动计时）则取消对局。会话已清理时为空操作。
func (s *MatchService) HandleTimeout(ctx context.Context, matchID int64) {
	_, ok, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		s.logger.Error("读取超时对局失败", zap.Int64("matchId", matchID), zap.Error(err))
		return
	}
	if !ok {
		// 会话已结束，两个限时键过期竞争是常态
		return
	}

	_, started, err := s.state.LastMoveTime(ctx, matchID)
	if err != nil {
		s.logger.Error("读取超时对局失败", zap.Int64("matchId", matchID), zap.Error(err))
		return
	}
	if !started {
		if err := s.cancelMatch(ctx, matchID); err != nil {
			s.logger.Error("取消对局失败", zap.Int64("matchId", matchID), zap.Error(err))
		}
		return
	}

	turn, ok, err := s.state.Turn(ctx, matchID)
	if err != nil || !ok {
		if err != nil {
			s.logger.Error("读取超时对局失败", zap.Int64("matchId", matchID), zap.Error(err))
		}
		return
	}
	s.logger.Info("对局超时", zap.Int64("matchId", matchID), zap.Int64("timedOutPlayerId", turn))
	if err := s.endMatch(ctx, matchID, turn); err != nil {
		s.logger.Error("超时终局失败", zap.Int64("matchId", matchID), zap.Error(err))
	}
}

// endMatch 终局结算：落结果、调等级分、清会话、推结算事件
func (s *MatchService) endMatch(ctx context.Context, matchID, losingPlayerID int64) error {
	redID, ok, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		return err
	}
	if !ok {
		// 另一路已结算
		return nil
	}
	blackID, _, err := s.state.PlayerID(ctx, matchID, game.SideBlack)
	if err != nil {
		return err
	}

	result := models.ResultRedWin
	winnerID := redID
	if losingPlayerID == redID {
		result = models.ResultBlackWin
		winnerID = blackID
	}
	if err := s.matches.RecordResult(ctx, matchID, result, s.now()); err != nil {
		return err
	}
	if err := s.players.AdjustRating(ctx, winnerID, s.ratingDelta); err != nil {
		return err
	}
	if err := s.players.AdjustRating(ctx, losingPlayerID, -s.ratingDelta); err != nil {
		return err
	}
	if err := s.state.DeleteAll(ctx, matchID); err != nil {
		return err
	}

	s.notifier.NotifyPlayer(winnerID, ChannelMatch, Event{
		Status:  StatusOK,
		Message: "Match is end.",
		Data:    MatchOutcome{Result: OutcomeWin, RatingDelta: s.ratingDelta},
	})
	s.notifier.NotifyPlayer(losingPlayerID, ChannelMatch, Event{
		Status:  StatusOK,
		Message: "Match is end.",
		Data:    MatchOutcome{Result: OutcomeLose, RatingDelta: -s.ratingDelta},
	})
	s.logger.Info("对局结束",
		zap.Int64("matchId", matchID),
		zap.Int64("winnerId", winnerID),
		zap.String("result", result))
	return nil
}

// cancelMatch 双方未就绪即超时，对局作废不动等级分
func (s *MatchService) cancelMatch(ctx context.Context, matchID int64) error {
	redID, ok, err := s.state.PlayerID(ctx, matchID, game.SideRed)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	blackID, _, err := s.state.PlayerID(ctx, matchID, game.SideBlack)
	if err != nil {
		return err
	}

	if err := s.matches.RecordResult(ctx, matchID, models.ResultCancelled, s.now()); err != nil {
		return err
	}
	if err := s.state.DeleteAll(ctx, matchID); err != nil {
		return err
	}

	event := Event{Status: StatusTimeout, Message: "Match is cancelled.", Data: MatchOutcome{Result: OutcomeCancel}}
	s.notifier.NotifyPlayer(redID, ChannelMatch, event)
	s.notifier.NotifyPlayer(blackID, ChannelMatch, event)
	s.logger.Info("对局取消", zap.Int64("matchId", matchID))
	return nil
}

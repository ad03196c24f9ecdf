package match

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
)

func newAIPlayer(t *testing.T, env *testEnv, role string) *models.Player {
	t.Helper()
	player := &models.Player{
		Username: role,
		Password: "x",
		Rating:   models.DefaultRating,
		Role:     role,
	}
	if err := env.db.Create(player).Error; err != nil {
		t.Fatalf("创建AI账号失败: %v", err)
	}
	return player
}

// overwriteBoard 替换会话棋盘，用于构造特定局面
func overwriteBoard(t *testing.T, env *testEnv, matchID int64, b *game.Board) {
	t.Helper()
	boardJSON, err := b.Serialize()
	if err != nil {
		t.Fatalf("序列化棋盘失败: %v", err)
	}
	if err := env.state.SaveBoard(context.Background(), matchID, boardJSON); err != nil {
		t.Fatalf("写入棋盘失败: %v", err)
	}
}

func TestCreateInitializesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1250)
	black := env.newPlayer(t, "black", 1230)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, game.NewBoard(), st.Board)
	assert.Equal(t, red.ID, st.RedPlayerID)
	assert.Equal(t, black.ID, st.BlackPlayerID)
	assert.Equal(t, red.ID, st.Turn)
	assert.Equal(t, "red", st.RedPlayerName)
	assert.Equal(t, "black", st.BlackPlayerName)
	assert.Equal(t, 1250, st.RedPlayerRating)
	assert.Equal(t, 1230, st.BlackPlayerRating)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), st.RedTimeLeft)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), st.BlackTimeLeft)
	assert.Nil(t, st.LastMoveTime)

	redReady, _, err := env.state.ReadyStatus(ctx, matchID, game.SideRed)
	require.NoError(t, err)
	assert.False(t, redReady)
	blackReady, _, err := env.state.ReadyStatus(ctx, matchID, game.SideBlack)
	require.NoError(t, err)
	assert.False(t, blackReady)

	// 准备阶段的走子限时从创建起就在计
	_, ok, err := env.kv.TTL(ctx, fmt.Sprintf(turnDeadlineFmt, matchID))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStateMissingMatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.State(context.Background(), 999)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotFound))
}

func TestReadyStartsWhenBothReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.Ready(ctx, matchID, red.ID))
	assert.Equal(t, 0, env.notifier.countMessage(red.ID, "The match is start."))

	require.NoError(t, env.svc.Ready(ctx, matchID, black.ID))
	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "The match is start."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "The match is start."))

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	require.NotNil(t, st.LastMoveTime)

	_, armed, err := env.kv.TTL(ctx, fmt.Sprintf(totalDeadlineFmt, matchID))
	require.NoError(t, err)
	assert.True(t, armed)
}

func TestReadyOutsiderForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	outsider := env.newPlayer(t, "outsider", 1200)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	err = env.svc.Ready(ctx, matchID, outsider.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchForbidden))
}

func TestReadyMissingMatch(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Ready(context.Background(), 999, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotFound))
}

func TestConcurrentReadyStartsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []int64{red.ID, black.ID} {
		wg.Add(1)
		go func(actorID int64) {
			defer wg.Done()
			if err := env.svc.Ready(ctx, matchID, actorID); err != nil {
				t.Errorf("就绪失败: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "The match is start."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "The match is start."))
}

func TestMoveFlipsTurnAndDeductsClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return base }
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 红方思考10秒后出炮
	env.svc.now = func() time.Time { return base.Add(10 * time.Second) }
	require.NoError(t, env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4}))

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, black.ID, st.Turn)
	assert.Equal(t, "C", st.Board.At(game.Position{Row: 7, Col: 4}))
	assert.Equal(t, "", st.Board.At(game.Position{Row: 7, Col: 1}))
	assert.Equal(t, (15*time.Minute - 10*time.Second).Milliseconds(), st.RedTimeLeft)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), st.BlackTimeLeft)
	require.NotNil(t, st.LastMoveTime)
	assert.Equal(t, base.Add(10*time.Second).UnixMilli(), st.LastMoveTime.UnixMilli())

	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Piece moved."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "Piece moved."))
}

func TestMoveWrongTurnRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 黑方抢先走子
	err := env.svc.Move(ctx, matchID, black.ID,
		game.Position{Row: 2, Col: 1}, game.Position{Row: 2, Col: 4})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	// 红方挪对方的棋子
	err = env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 2, Col: 1}, game.Position{Row: 2, Col: 4})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, red.ID, st.Turn)
	assert.Equal(t, game.NewBoard(), st.Board)
}

func TestMoveIllegalRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 炮斜走
	err := env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 5, Col: 3})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	// 起点无子
	err = env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 4, Col: 4}, game.Position{Row: 4, Col: 5})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))
}

func TestMoveOutOfBoardRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 起点越界
	err := env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 99, Col: 0}, game.Position{Row: 0, Col: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	// 终点越界
	err = env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 9})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	// 负坐标
	err = env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: -1, Col: -1}, game.Position{Row: 0, Col: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMove))

	// 局面未被破坏，正常着法仍可走
	require.NoError(t, env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4}))
}

func TestMoveWithOpponentTimeExhaustedEndsMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 黑方总时长已耗尽，红方落子后立即按超时终局
	require.NoError(t, env.state.SaveTimeLeft(ctx, matchID, game.SideBlack, 0))
	require.NoError(t, env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4}))

	_, err := env.svc.State(ctx, matchID)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotFound))

	record, err := env.matchRepo.FindByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultRedWin, record.Result)

	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Match is end."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "Match is end."))
}

func TestMoveBeforeStartRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	err = env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4})
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotReady))
}

func TestMoveMissingMatch(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Move(context.Background(), 999, 1,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4})
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotFound))
}

func TestCheckmateEndsMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 双车错杀型：车(5,0)进底线即绝杀
	b := &game.Board{}
	b[0][4] = "k"
	b[1][8] = "R"
	b[5][0] = "R"
	b[9][3] = "K"
	overwriteBoard(t, env, matchID, b)

	require.NoError(t, env.svc.Move(ctx, matchID, red.ID,
		game.Position{Row: 5, Col: 0}, game.Position{Row: 0, Col: 0}))

	// 会话已清理
	_, err := env.svc.State(ctx, matchID)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchNotFound))

	// 结果与等级分
	record, err := env.matchRepo.FindByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultRedWin, record.Result)
	assert.True(t, record.Finished())

	redRating, err := env.players.RatingOf(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, 1210, redRating)
	blackRating, err := env.players.RatingOf(ctx, black.ID)
	require.NoError(t, err)
	assert.Equal(t, 1190, blackRating)

	// 结算事件
	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Match is end."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "Match is end."))
	winEvent, _ := env.notifier.lastEvent(red.ID)
	assert.Equal(t, OutcomeWin, winEvent.Data.(MatchOutcome).Result)
	assert.Equal(t, 10, winEvent.Data.(MatchOutcome).RatingDelta)
	loseEvent, _ := env.notifier.lastEvent(black.ID)
	assert.Equal(t, OutcomeLose, loseEvent.Data.(MatchOutcome).Result)
	assert.Equal(t, -10, loseEvent.Data.(MatchOutcome).RatingDelta)
}

func TestResignOnTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	require.NoError(t, env.svc.Resign(ctx, matchID, red.ID))

	record, err := env.matchRepo.FindByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultBlackWin, record.Result)

	blackRating, err := env.players.RatingOf(ctx, black.ID)
	require.NoError(t, err)
	assert.Equal(t, 1210, blackRating)
	redRating, err := env.players.RatingOf(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, 1190, redRating)
}

func TestResignOffTurnRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	err := env.svc.Resign(ctx, matchID, black.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidResign))

	// 对局未受影响
	_, err = env.svc.State(ctx, matchID)
	assert.NoError(t, err)
}

func TestResignOutsiderForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	outsider := env.newPlayer(t, "outsider", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	err := env.svc.Resign(ctx, matchID, outsider.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchForbidden))
}

func TestHandleTimeoutStartedMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)
	matchID := env.startedMatch(t, red.ID, black.ID)

	// 红方行棋超时判负
	env.svc.HandleTimeout(ctx, matchID)

	record, err := env.matchRepo.FindByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultBlackWin, record.Result)
	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Match is end."))

	// 两个限时键过期会各触发一次回调，第二次应为空操作
	env.svc.HandleTimeout(ctx, matchID)
	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Match is end."))
}

func TestHandleTimeoutUnstartedCancels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	red := env.newPlayer(t, "red", 1200)
	black := env.newPlayer(t, "black", 1200)

	matchID, err := env.svc.Create(ctx, red.ID, black.ID)
	require.NoError(t, err)

	env.svc.HandleTimeout(ctx, matchID)

	record, err := env.matchRepo.FindByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultCancelled, record.Result)

	// 取消不动等级分
	rating, err := env.players.RatingOf(ctx, red.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200, rating)

	assert.Equal(t, 1, env.notifier.countMessage(red.ID, "Match is cancelled."))
	assert.Equal(t, 1, env.notifier.countMessage(black.ID, "Match is cancelled."))
}

func TestCreateWithAI(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	human := env.newPlayer(t, "human", 1200)
	ai := newAIPlayer(t, env, models.RoleAIEasy)

	matchID, err := env.svc.CreateWithAI(ctx, human.ID, models.RoleAIEasy)
	require.NoError(t, err)

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, human.ID, st.RedPlayerID)
	assert.Equal(t, ai.ID, st.BlackPlayerID)

	aiMode, ok, err := env.state.AIMode(ctx, matchID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RoleAIEasy, aiMode)

	// 创建时AI未就绪，Ready按对手角色识别AI并替它置位，玩家单方就绪即开局
	aiReady, _, err := env.state.ReadyStatus(ctx, matchID, game.SideBlack)
	require.NoError(t, err)
	assert.False(t, aiReady)
	require.NoError(t, env.svc.Ready(ctx, matchID, human.ID))
	assert.Equal(t, 1, env.notifier.countMessage(human.ID, "The match is start."))
}

func TestCreateWithAIInvalidMode(t *testing.T) {
	env := newTestEnv(t)
	human := env.newPlayer(t, "human", 1200)

	_, err := env.svc.CreateWithAI(context.Background(), human.ID, "IMPOSSIBLE")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
}

func TestAIReplyAfterHumanMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	human := env.newPlayer(t, "human", 1200)
	newAIPlayer(t, env, models.RoleAIEasy)

	matchID, err := env.svc.CreateWithAI(ctx, human.ID, models.RoleAIEasy)
	require.NoError(t, err)
	require.NoError(t, env.svc.Ready(ctx, matchID, human.ID))

	// 红出炮后AI回应平炮
	env.oracle.from = game.Position{Row: 2, Col: 1}
	env.oracle.to = game.Position{Row: 2, Col: 4}
	require.NoError(t, env.svc.Move(ctx, matchID, human.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4}))

	assert.Equal(t, 1, env.oracle.calls)
	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, human.ID, st.Turn)
	assert.Equal(t, "c", st.Board.At(game.Position{Row: 2, Col: 4}))
	assert.Equal(t, "", st.Board.At(game.Position{Row: 2, Col: 1}))
}

func TestAIInvalidReplyIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	human := env.newPlayer(t, "human", 1200)
	ai := newAIPlayer(t, env, models.RoleAIEasy)

	matchID, err := env.svc.CreateWithAI(ctx, human.ID, models.RoleAIEasy)
	require.NoError(t, err)
	require.NoError(t, env.svc.Ready(ctx, matchID, human.ID))

	// AI给出非法走法，落子被拒但玩家请求不报错
	env.oracle.from = game.Position{Row: 0, Col: 0}
	env.oracle.to = game.Position{Row: 5, Col: 5}
	require.NoError(t, env.svc.Move(ctx, matchID, human.ID,
		game.Position{Row: 7, Col: 1}, game.Position{Row: 7, Col: 4}))

	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, ai.ID, st.Turn)
}

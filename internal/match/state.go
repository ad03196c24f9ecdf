package match

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
)

// SessionStore 封装对局会话在共享存储中的读写。
// 所有字段键永不过期，清理只走 DeleteAll；
// 两个 deadline 键只写TTL，过期事件由 Dispatcher 消费。
type SessionStore struct {
	kv store.Store
}

func NewSessionStore(kv store.Store) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) SaveBoard(ctx context.Context, matchID int64, boardJSON string) error {
	return s.kv.Set(ctx, fmt.Sprintf(boardKeyFmt, matchID), boardJSON)
}

func (s *SessionStore) Board(ctx context.Context, matchID int64) (string, bool, error) {
	return s.kv.Get(ctx, fmt.Sprintf(boardKeyFmt, matchID))
}

func (s *SessionStore) SavePlayerID(ctx context.Context, matchID int64, side game.Side, playerID int64) error {
	return s.kv.Set(ctx, fmt.Sprintf(playerIDKeyFmt, matchID, sideName(side)), strconv.FormatInt(playerID, 10))
}

func (s *SessionStore) PlayerID(ctx context.Context, matchID int64, side game.Side) (int64, bool, error) {
	return s.getInt64(ctx, fmt.Sprintf(playerIDKeyFmt, matchID, sideName(side)))
}

func (s *SessionStore) SaveTurn(ctx context.Context, matchID int64, playerID int64) error {
	return s.kv.Set(ctx, fmt.Sprintf(turnKeyFmt, matchID), strconv.FormatInt(playerID, 10))
}

func (s *SessionStore) Turn(ctx context.Context, matchID int64) (int64, bool, error) {
	return s.getInt64(ctx, fmt.Sprintf(turnKeyFmt, matchID))
}

func (s *SessionStore) SavePlayerName(ctx context.Context, matchID int64, side game.Side, name string) error {
	return s.kv.Set(ctx, fmt.Sprintf(playerNameKeyFmt, matchID, sideName(side)), name)
}

func (s *SessionStore) PlayerName(ctx context.Context, matchID int64, side game.Side) (string, bool, error) {
	return s.kv.Get(ctx, fmt.Sprintf(playerNameKeyFmt, matchID, sideName(side)))
}

func (s *SessionStore) SavePlayerRating(ctx context.Context, matchID int64, side game.Side, rating int) error {
	return s.kv.Set(ctx, fmt.Sprintf(playerRatingKeyFmt, matchID, sideName(side)), strconv.Itoa(rating))
}

func (s *SessionStore) PlayerRating(ctx context.Context, matchID int64, side game.Side) (int, bool, error) {
	v, ok, err := s.getInt64(ctx, fmt.Sprintf(playerRatingKeyFmt, matchID, sideName(side)))
	return int(v), ok, err
}

// SaveTimeLeft 以毫秒存剩余总时长
func (s *SessionStore) SaveTimeLeft(ctx context.Context, matchID int64, side game.Side, left time.Duration) error {
	return s.kv.Set(ctx, fmt.Sprintf(timeLeftKeyFmt, matchID, sideName(side)), strconv.FormatInt(left.Milliseconds(), 10))
}

func (s *SessionStore) TimeLeft(ctx context.Context, matchID int64, side game.Side) (time.Duration, bool, error) {
	ms, ok, err := s.getInt64(ctx, fmt.Sprintf(timeLeftKeyFmt, matchID, sideName(side)))
	return time.Duration(ms) * time.Millisecond, ok, err
}

// SaveLastMoveTime 以毫秒时间戳存最近一次落子时刻
func (s *SessionStore) SaveLastMoveTime(ctx context.Context, matchID int64, t time.Time) error {
	return s.kv.Set(ctx, fmt.Sprintf(lastMoveTimeKeyFmt, matchID), strconv.FormatInt(t.UnixMilli(), 10))
}

func (s *SessionStore) LastMoveTime(ctx context.Context, matchID int64) (time.Time, bool, error) {
	ms, ok, err := s.getInt64(ctx, fmt.Sprintf(lastMoveTimeKeyFmt, matchID))
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return time.UnixMilli(ms), true, nil
}

func (s *SessionStore) SaveReadyStatus(ctx context.Context, matchID int64, side game.Side, ready bool) error {
	return s.kv.Set(ctx, fmt.Sprintf(readyStatusKeyFmt, matchID, sideName(side)), strconv.FormatBool(ready))
}

func (s *SessionStore) ReadyStatus(ctx context.Context, matchID int64, side game.Side) (bool, bool, error) {
	v, ok, err := s.kv.Get(ctx, fmt.Sprintf(readyStatusKeyFmt, matchID, sideName(side)))
	if err != nil || !ok {
		return false, ok, err
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		return false, true, apperrors.Wrap(perr, apperrors.ErrInternal, "解析准备状态失败")
	}
	return b, true, nil
}

func (s *SessionStore) SaveAIMode(ctx context.Context, matchID int64, mode string) error {
	return s.kv.Set(ctx, fmt.Sprintf(aiModeKeyFmt, matchID), mode)
}

func (s *SessionStore) AIMode(ctx context.Context, matchID int64) (string, bool, error) {
	return s.kv.Get(ctx, fmt.Sprintf(aiModeKeyFmt, matchID))
}

// ArmTurnDeadline 重置走子限时键，过期触发超时终局
func (s *SessionStore) ArmTurnDeadline(ctx context.Context, matchID int64, ttl time.Duration) error {
	return s.kv.SetTTL(ctx, fmt.Sprintf(turnDeadlineFmt, matchID), "1", ttl)
}

// ArmTotalDeadline 重置当前行棋方的总时长限时键
func (s *SessionStore) ArmTotalDeadline(ctx context.Context, matchID int64, ttl time.Duration) error {
	return s.kv.SetTTL(ctx, fmt.Sprintf(totalDeadlineFmt, matchID), "1", ttl)
}

// DeleteAll 清掉一局对局的全部会话键，含尚未到期的 deadline 键
func (s *SessionStore) DeleteAll(ctx context.Context, matchID int64) error {
	keys := []string{
		fmt.Sprintf(boardKeyFmt, matchID),
		fmt.Sprintf(turnKeyFmt, matchID),
		fmt.Sprintf(lastMoveTimeKeyFmt, matchID),
		fmt.Sprintf(aiModeKeyFmt, matchID),
		fmt.Sprintf(turnDeadlineFmt, matchID),
		fmt.Sprintf(totalDeadlineFmt, matchID),
	}
	for _, side := range []game.Side{game.SideRed, game.SideBlack} {
		keys = append(keys,
			fmt.Sprintf(playerIDKeyFmt, matchID, sideName(side)),
			fmt.Sprintf(playerNameKeyFmt, matchID, sideName(side)),
			fmt.Sprintf(playerRatingKeyFmt, matchID, sideName(side)),
			fmt.Sprintf(timeLeftKeyFmt, matchID, sideName(side)),
			fmt.Sprintf(readyStatusKeyFmt, matchID, sideName(side)),
		)
	}
	return s.kv.Delete(ctx, keys...)
}

func (s *SessionStore) getInt64(ctx context.Context, key string) (int64, bool, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, perr := strconv.ParseInt(v, 10, 64)
	if perr != nil {
		return 0, true, apperrors.Wrap(perr, apperrors.ErrInternal, "解析会话字段失败")
	}
	return n, true, nil
}

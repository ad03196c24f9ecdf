package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
)

func TestContractCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)

	contract, err := env.contracts.Get(ctx, contractID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, contract.Player1.ID)
	assert.Equal(t, p2.ID, contract.Player2.ID)
	assert.False(t, contract.Player1.AcceptStatus)
	assert.False(t, contract.Player2.AcceptStatus)
}

func TestContractGetMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.contracts.Get(context.Background(), "no-such-contract")
	assert.True(t, apperrors.Is(err, apperrors.ErrContractNotFound))
}

func TestContractSingleAcceptDoesNotCreateMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)
	require.NoError(t, env.contracts.Accept(ctx, contractID, p1.ID))

	// 契约仍在，确认位已落
	contract, err := env.contracts.Get(ctx, contractID)
	require.NoError(t, err)
	assert.True(t, contract.Player1.AcceptStatus)
	assert.False(t, contract.Player2.AcceptStatus)
	assert.Equal(t, 0, env.notifier.countMessage(p1.ID, "The match is created."))
}

func TestContractBothAcceptCreatesMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)
	require.NoError(t, env.contracts.Accept(ctx, contractID, p1.ID))
	require.NoError(t, env.contracts.Accept(ctx, contractID, p2.ID))

	// 契约已消费
	_, err = env.contracts.Get(ctx, contractID)
	assert.True(t, apperrors.Is(err, apperrors.ErrContractNotFound))

	// 双方各收到一条创建通知，携带同一对局ID
	assert.Equal(t, 1, env.notifier.countMessage(p1.ID, "The match is created."))
	assert.Equal(t, 1, env.notifier.countMessage(p2.ID, "The match is created."))
	e1, _ := env.notifier.lastEvent(p1.ID)
	e2, _ := env.notifier.lastEvent(p2.ID)
	matchID := e1.Data.(MatchCreated).MatchID
	assert.Equal(t, matchID, e2.Data.(MatchCreated).MatchID)

	// 对局会话已初始化
	st, err := env.svc.State(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, st.RedPlayerID)
	assert.Equal(t, p2.ID, st.BlackPlayerID)
}

func TestContractAcceptUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)
	outsider := env.newPlayer(t, "outsider", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)

	err = env.contracts.Accept(ctx, contractID, outsider.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestContractConcurrentAcceptsCreateOneMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []int64{p1.ID, p2.ID} {
		wg.Add(1)
		go func(actorID int64) {
			defer wg.Done()
			if err := env.contracts.Accept(ctx, contractID, actorID); err != nil {
				t.Errorf("确认契约失败: %v", err)
			}
		}(id)
	}
	wg.Wait()

	// 恰好创建一局、恰好各通知一次
	assert.Equal(t, 1, env.notifier.countMessage(p1.ID, "The match is created."))
	assert.Equal(t, 1, env.notifier.countMessage(p2.ID, "The match is created."))

	var total int64
	require.NoError(t, env.db.Model(&models.Match{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestContractUpdatePreservesRemainingTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p1 := env.newPlayer(t, "p1", 1200)
	p2 := env.newPlayer(t, "p2", 1200)

	contractID, err := env.contracts.Create(ctx, p1.ID, p2.ID)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, env.contracts.Accept(ctx, contractID, p1.ID))

	remaining, ok, err := env.kv.TTL(ctx, contractKey(contractID))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, store.NoExpiry, remaining)
	// 确认不能把时限重置回整段
	assert.Less(t, remaining, 5*time.Second)
	assert.Greater(t, remaining, time.Second)
}

func TestContractHandleTimeoutNotifiesContractChannel(t *testing.T) {
	env := newTestEnv(t)

	env.contracts.HandleTimeout(context.Background(), "expired-contract")

	assert.Equal(t, 1, env.notifier.contractEventCount("expired-contract"))
}

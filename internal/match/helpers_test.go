package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/config"
	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
	"gorm.io/gorm"
)

// fakeNotifier 记录推送事件
type fakeNotifier struct {
	mu             sync.Mutex
	playerEvents   map[int64][]Event
	contractEvents map[string][]Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		playerEvents:   make(map[int64][]Event),
		contractEvents: make(map[string][]Event),
	}
}

func (n *fakeNotifier) NotifyPlayer(playerID int64, channel string, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playerEvents[playerID] = append(n.playerEvents[playerID], event)
}

func (n *fakeNotifier) NotifyContract(contractID string, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contractEvents[contractID] = append(n.contractEvents[contractID], event)
}

func (n *fakeNotifier) events(playerID int64) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Event, len(n.playerEvents[playerID]))
	copy(out, n.playerEvents[playerID])
	return out
}

func (n *fakeNotifier) countMessage(playerID int64, message string) int {
	count := 0
	for _, e := range n.events(playerID) {
		if e.Message == message {
			count++
		}
	}
	return count
}

func (n *fakeNotifier) lastEvent(playerID int64) (Event, bool) {
	events := n.events(playerID)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

func (n *fakeNotifier) contractEventCount(contractID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.contractEvents[contractID])
}

// fakeOracle 返回脚本化走法
type fakeOracle struct {
	mu    sync.Mutex
	from  game.Position
	to    game.Position
	err   error
	calls int
}

func (o *fakeOracle) RequestMove(ctx context.Context, board *game.Board, aiMode string) (game.Position, game.Position, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.from, o.to, o.err
}

// testEnv 匹配/对局测试环境：真实内存存储+真实sqlite仓储
type testEnv struct {
	kv        *store.MemoryStore
	locks     *store.LockManager
	db        *gorm.DB
	players   repository.PlayerRepository
	matchRepo repository.MatchRepository
	notifier  *fakeNotifier
	oracle    *fakeOracle
	state     *SessionStore
	svc       *MatchService
	contracts *ContractService
	queue     *QueueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	locks := store.NewLockManager(kv, time.Second, time.Millisecond)

	db := repository.TestDB(t)
	players := repository.NewPlayerRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	notifier := newFakeNotifier()
	oracle := &fakeOracle{}
	logger := zap.NewNop()

	state := NewSessionStore(kv)
	svc := NewMatchService(state, locks, matchRepo, players, notifier, oracle,
		config.MatchConfig{
			TotalTime:   15 * time.Minute,
			TurnTime:    time.Minute,
			RatingDelta: 10,
		}, logger)
	// 测试固定player1执红
	svc.pickRed = func() bool { return true }

	contracts := NewContractService(kv, locks, svc, notifier, 5*time.Second, logger)
	queue := NewQueueService(kv, locks, players, contracts, notifier,
		RatingBoundedPolicy{Threshold: 100}, logger)

	return &testEnv{
		kv:        kv,
		locks:     locks,
		db:        db,
		players:   players,
		matchRepo: matchRepo,
		notifier:  notifier,
		oracle:    oracle,
		state:     state,
		svc:       svc,
		contracts: contracts,
		queue:     queue,
	}
}

func (e *testEnv) newPlayer(t *testing.T, username string, rating int) *models.Player {
	t.Helper()
	return repository.CreateTestPlayer(t, e.db, username, rating)
}

// startedMatch 创建对局并让双方就绪
func (e *testEnv) startedMatch(t *testing.T, redID, blackID int64) int64 {
	t.Helper()
	ctx := context.Background()

	matchID, err := e.svc.Create(ctx, redID, blackID)
	if err != nil {
		t.Fatalf("创建对局失败: %v", err)
	}
	if err := e.svc.Ready(ctx, matchID, redID); err != nil {
		t.Fatalf("红方就绪失败: %v", err)
	}
	if err := e.svc.Ready(ctx, matchID, blackID); err != nil {
		t.Fatalf("黑方就绪失败: %v", err)
	}
	return matchID
}

package store

import (
	"context"
	"time"
)

const (
	// DefaultLockTTL 锁的自动过期时间，持有者崩溃后锁最多存活这么久
	DefaultLockTTL = 10 * time.Second
	// DefaultLockRetryDelay 锁竞争失败后的重试间隔
	DefaultLockRetryDelay = 100 * time.Millisecond

	lockKeyPrefix = "lock:"
)

// LockManager 基于 SetNX 的命名互斥锁。
// Acquire 忙等重试直到成功；锁不可重入，临界区必须远短于TTL，
// 否则锁到期后可能被其他持有者抢走。
type LockManager struct {
	store      Store
	ttl        time.Duration
	retryDelay time.Duration
}

// NewLockManager 创建锁管理器
func NewLockManager(s Store, ttl, retryDelay time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if retryDelay <= 0 {
		retryDelay = DefaultLockRetryDelay
	}
	return &LockManager{
		store:      s,
		ttl:        ttl,
		retryDelay: retryDelay,
	}
}

// Acquire 阻塞直到持有名为name的锁，或ctx被取消
func (m *LockManager) Acquire(ctx context.Context, name string) error {
	key := lockKeyPrefix + name
	for {
		ok, err := m.store.SetNX(ctx, key, "locked", m.ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay):
		}
	}
}

// Release 无条件释放名为name的锁
func (m *LockManager) Release(ctx context.Context, name string) {
	// 释放失败只能等TTL兜底
	_ = m.store.Delete(ctx, lockKeyPrefix+name)
}

// WithLock 在持锁状态下执行fn，所有退出路径都会释放锁
func (m *LockManager) WithLock(ctx context.Context, name string, fn func() error) error {
	if err := m.Acquire(ctx, name); err != nil {
		return err
	}
	defer m.Release(ctx, name)

	return fn()
}

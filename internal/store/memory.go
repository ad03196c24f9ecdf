package store

import (
	"context"
	"sync"
	"time"
)

// entry 带过期时间的键值记录
type entry struct {
	value    string
	seq      uint64
	expireAt time.Time
	timer    *time.Timer
}

// MemoryStore 进程内的 Store 实现。
// 每个带TTL的键挂一个定时器，到期后删除键并把键名推入过期通道，
// 语义对齐键空间过期通知：先删后报，通知里只有键名。
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lists    map[string][]string
	seq      uint64
	expired  chan string
	inFlight sync.WaitGroup
	closed   bool
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		lists:   make(map[string][]string),
		expired: make(chan string, 256),
	}
}

// Get 读取键值
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	// 定时器触发前的到期竞态：按不存在处理
	if !e.expireAt.IsZero() && !time.Now().Before(e.expireAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set 写入键值（无过期时间）
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	return s.set(key, value, 0)
}

// SetTTL 写入键值并设置过期时间
func (s *MemoryStore) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.set(key, value, ttl)
}

func (s *MemoryStore) set(key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.stopTimerLocked(key)
	s.seq++
	e := &entry{value: value, seq: s.seq}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
		e.timer = s.newExpireTimerLocked(key, e.seq, ttl)
	}
	s.entries[key] = e
	return nil
}

// SetNX 键不存在时写入
func (s *MemoryStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	if e, ok := s.entries[key]; ok {
		if e.expireAt.IsZero() || time.Now().Before(e.expireAt) {
			return false, nil
		}
		// 已到期但定时器尚未触发，视为不存在
		s.stopTimerLocked(key)
	}

	s.seq++
	e := &entry{value: value, seq: s.seq}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
		e.timer = s.newExpireTimerLocked(key, e.seq, ttl)
	}
	s.entries[key] = e
	return true, nil
}

// Delete 删除若干键
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for _, key := range keys {
		s.stopTimerLocked(key)
		delete(s.entries, key)
		delete(s.lists, key)
	}
	return nil
}

// TTL 返回键的剩余存活时间
func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrClosed
	}

	e, ok := s.entries[key]
	if !ok {
		return 0, false, nil
	}
	if e.expireAt.IsZero() {
		return NoExpiry, true, nil
	}
	remaining := time.Until(e.expireAt)
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// ListPush 追加到列表尾部
func (s *MemoryStore) ListPush(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.lists[key] = append(s.lists[key], value)
	return nil
}

// ListRange 返回列表全部元素
func (s *MemoryStore) ListRange(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	src := s.lists[key]
	out := make([]string, len(src))
	copy(out, src)
	return out, nil
}

// ListRemove 删除列表中首个等值元素
func (s *MemoryStore) ListRemove(ctx context.Context, key, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	list := s.lists[key]
	for i, v := range list {
		if v == value {
			s.lists[key] = append(list[:i:i], list[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// Expirations 键过期通知通道
func (s *MemoryStore) Expirations() <-chan string {
	return s.expired
}

// Close 关闭存储
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	for key := range s.entries {
		s.stopTimerLocked(key)
	}
	s.entries = make(map[string]*entry)
	s.lists = make(map[string][]string)
	s.mu.Unlock()

	// 等已进入通知阶段的到期回调发完，再关通道
	s.inFlight.Wait()
	close(s.expired)
	return nil
}

// stopTimerLocked 停掉键上挂着的到期定时器
func (s *MemoryStore) stopTimerLocked(key string) {
	if e, ok := s.entries[key]; ok && e.timer != nil {
		e.timer.Stop()
	}
}

// newExpireTimerLocked 创建到期定时器，seq用于识别键被覆盖后的陈旧触发
func (s *MemoryStore) newExpireTimerLocked(key string, seq uint64, ttl time.Duration) *time.Timer {
	return time.AfterFunc(ttl, func() {
		s.expire(key, seq)
	})
}

func (s *MemoryStore) expire(key string, seq uint64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e, ok := s.entries[key]
	if !ok || e.seq != seq {
		// 键已被删除或覆盖，属于陈旧触发
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.inFlight.Add(1)
	s.mu.Unlock()

	// 先删后报，订阅方拿到通知时键已不存在
	s.expired <- key
	s.inFlight.Done()
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed 存储已关闭
var ErrClosed = errors.New("store: closed")

// NoExpiry TTL返回值：键存在但未设置过期时间
const NoExpiry = time.Duration(-1)

// Store 共享键值存储抽象。
// 对局、契约、队列的全部共享状态都通过命名键读写，
// 带TTL的键过期后会通过 Expirations 通道推送键名。
type Store interface {
	// Get 读取键值，键不存在时第二个返回值为false
	Get(ctx context.Context, key string) (string, bool, error)
	// Set 写入键值（无过期时间）
	Set(ctx context.Context, key, value string) error
	// SetTTL 写入键值并设置过期时间
	SetTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 键不存在时写入，返回是否写入成功（锁原语）
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete 删除若干键，不存在的键忽略
	Delete(ctx context.Context, keys ...string) error
	// TTL 返回键的剩余存活时间；键不存在时第二个返回值为false，
	// 键存在但无过期时间时返回 NoExpiry
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// 列表操作（匹配队列）

	// ListPush 追加到列表尾部
	ListPush(ctx context.Context, key, value string) error
	// ListRange 返回列表全部元素（从头到尾）
	ListRange(ctx context.Context, key string) ([]string, error)
	// ListRemove 删除列表中首个等值元素，返回删除个数
	ListRemove(ctx context.Context, key, value string) (int, error)

	// Expirations 键过期通知通道，推送过期键名
	Expirations() <-chan string
	// Close 关闭存储并停止过期通知
	Close() error
}

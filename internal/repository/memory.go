package repository

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore 内存版 Store，实现与 RedisStore 相同的语义（含 TTL），用于测试
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// Now 可注入时钟，便于测试 TTL 过期
	Now func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // 零值表示不过期
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

func (s *MemoryStore) get(key string) ([]byte, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && s.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.data, true
}

func (s *MemoryStore) GetJSON(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrBadRecord, key, err)
	}
	return true, nil
}

func (s *MemoryStore) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{data: data}
	return nil
}

func (s *MemoryStore) PutJSONTTL(key string, v interface{}, ttlSeconds int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		data:      data,
		expiresAt: s.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	return nil
}

func (s *MemoryStore) GetString(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.get(key)
	if !ok {
		return "", false, nil
	}
	return string(data), true, nil
}

func (s *MemoryStore) PutStringTTL(key, value string, ttlSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		data:      []byte(value),
		expiresAt: s.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	return nil
}

// PutRawString 写入不带 TTL 的裸字符串，测试旧格式兼容时使用
func (s *MemoryStore) PutRawString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{data: []byte(value)}
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Exists(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.get(key)
	return ok, nil
}

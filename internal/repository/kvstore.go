package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"linkgate/pkg/logging"
)

// ErrBadRecord 标记已读到但无法反序列化的记录。
// 调用方可据此区分脏数据与传输故障：前者可按记录缺失降级，后者必须上抛
var ErrBadRecord = errors.New("kv: undecodable record")

// Store 实体存储：单一扁平 KV 命名空间上的类型化读写删
// 读-改-写序列不加锁，同 key 并发下的丢失更新按设计接受
type Store interface {
	// GetJSON 读取并反序列化；key 不存在时返回 (false, nil)，
	// 记录无法解码时返回包装了 ErrBadRecord 的错误
	GetJSON(key string, out interface{}) (bool, error)
	PutJSON(key string, v interface{}) error
	PutJSONTTL(key string, v interface{}, ttlSeconds int) error
	GetString(key string) (string, bool, error)
	PutStringTTL(key, value string, ttlSeconds int) error
	Delete(key string) error
	Exists(key string) (bool, error)
}

// RedisStore 基于 redigo 连接池的 Store 实现
type RedisStore struct {
	pool *redis.Pool
}

func NewRedisStore(pool *redis.Pool) *RedisStore {
	return &RedisStore{pool: pool}
}

func (s *RedisStore) GetJSON(key string, out interface{}) (bool, error) {
	conn := s.pool.Get()
	defer closeConn(conn)

	data, err := redis.Bytes(conn.Do("GET", key))
	if err == redis.ErrNil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrBadRecord, key, err)
	}
	return true, nil
}

func (s *RedisStore) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	conn := s.pool.Get()
	defer closeConn(conn)

	_, err = conn.Do("SET", key, data)
	return err
}

func (s *RedisStore) PutJSONTTL(key string, v interface{}, ttlSeconds int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	conn := s.pool.Get()
	defer closeConn(conn)

	_, err = conn.Do("SET", key, data, "EX", ttlSeconds)
	return err
}

func (s *RedisStore) GetString(key string) (string, bool, error) {
	conn := s.pool.Get()
	defer closeConn(conn)

	value, err := redis.String(conn.Do("GET", key))
	if err == redis.ErrNil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) PutStringTTL(key, value string, ttlSeconds int) error {
	conn := s.pool.Get()
	defer closeConn(conn)

	_, err := conn.Do("SET", key, value, "EX", ttlSeconds)
	return err
}

func (s *RedisStore) Delete(key string) error {
	conn := s.pool.Get()
	defer closeConn(conn)

	_, err := conn.Do("DEL", key)
	return err
}

func (s *RedisStore) Exists(key string) (bool, error) {
	conn := s.pool.Get()
	defer closeConn(conn)

	return redis.Bool(conn.Do("EXISTS", key))
}

func closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		logging.Logger.Error("Failed to close Redis connection",
			zap.Error(err),
			zap.String("operation", "close"),
			zap.String("connection_type", "redis"),
		)
	}
}

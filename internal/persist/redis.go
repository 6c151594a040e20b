package persist

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var redisLogger = logrus.WithFields(logrus.Fields{
	"component":   "persist",
	"persistence": "redis",
})

var _ Backend = (*Redis)(nil)

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// Redis stores payloads as plain string values.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis connects to the configured redis server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis backend requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, namespace: cfg.Namespace}, nil
}

func (s *Redis) fullKey(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	id := s.fullKey(key)
	data, err := s.client.Get(ctx, id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", id)
	}
	redisLogger.Debugf("get key %q, %d bytes", id, len(data))
	// skip null data
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrNotExist
	}
	return data, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	id := s.fullKey(key)
	if err := s.client.Set(ctx, id, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", id)
	}
	redisLogger.Debugf("set key %q, %d bytes", id, len(value))
	return nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	id := s.fullKey(key)
	if err := s.client.Del(ctx, id).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", id)
	}
	return nil
}

// globEscaper quotes the characters SCAN MATCH treats as pattern syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (s *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, globEscaper.Replace(s.fullKey(prefix))+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if s.namespace != "" {
			key = strings.TrimPrefix(key, s.namespace+":")
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan")
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}

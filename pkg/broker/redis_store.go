package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cogpipe/core/pkg/types"
)

// RedisPeerStore is an optional Redis-backed PeerStore, grounded on
// the teacher's core.RedisDiscovery: peer records are JSON blobs under
// a namespaced key, with a TTL slightly longer than the health
// monitor's staleness window so peers that stop heartbeating expire
// from Redis on their own even if no process is running the monitor.
type RedisPeerStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisPeerStore connects to redisURL and namespaces every peer key
// under namespace (default "cogpipe:broker" when empty).
func NewRedisPeerStore(redisURL, namespace string) (*RedisPeerStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if namespace == "" {
		namespace = "cogpipe:broker"
	}

	return &RedisPeerStore{client: client, namespace: namespace, ttl: staleAfter + 30*time.Second}, nil
}

func (s *RedisPeerStore) key(id string) string {
	return fmt.Sprintf("%s:peers:%s", s.namespace, id)
}

func (s *RedisPeerStore) Put(peer types.PeerInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(peer)
	if err != nil {
		return
	}
	s.client.Set(ctx, s.key(peer.ID), data, s.ttl)
	s.client.SAdd(ctx, s.namespace+":ids", peer.ID)
}

func (s *RedisPeerStore) Delete(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.client.Del(ctx, s.key(id))
	s.client.SRem(ctx, s.namespace+":ids", id)
}

func (s *RedisPeerStore) Get(id string) (types.PeerInfo, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		return types.PeerInfo{}, false
	}
	var peer types.PeerInfo
	if err := json.Unmarshal([]byte(raw), &peer); err != nil {
		return types.PeerInfo{}, false
	}
	return peer, true
}

func (s *RedisPeerStore) List() []types.PeerInfo {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ids, err := s.client.SMembers(ctx, s.namespace+":ids").Result()
	if err != nil {
		return nil
	}

	out := make([]types.PeerInfo, 0, len(ids))
	for _, id := range ids {
		if peer, ok := s.Get(id); ok {
			out = append(out, peer)
		} else {
			s.client.SRem(ctx, s.namespace+":ids", id)
		}
	}
	return out
}

// Close releases the underlying Redis connection pool.
func (s *RedisPeerStore) Close() error {
	return s.client.Close()
}

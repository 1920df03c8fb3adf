// Package broker implements the Broker (spec §4.10): a peer registry,
// load-balanced remote tool discovery, failover execution, and health
// monitoring. Grounded on the teacher's core.RedisDiscovery/
// core.RedisRegistry pattern (namespaced keys, TTL/heartbeat staleness,
// capability indexes) generalized from service discovery to tool-peer
// discovery, and on orchestration's retry/backoff shape for the
// failover loop.
package broker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

// PeerStore is the interface the broker's registry backend must
// satisfy, implemented by both the default in-memory store and the
// optional Redis-backed one.
type PeerStore interface {
	Put(peer types.PeerInfo)
	Delete(id string)
	Get(id string) (types.PeerInfo, bool)
	List() []types.PeerInfo
}

// InMemoryPeerStore is the default PeerStore: a mutex-guarded map.
type InMemoryPeerStore struct {
	mu    sync.RWMutex
	peers map[string]types.PeerInfo
}

// NewInMemoryPeerStore builds an empty InMemoryPeerStore.
func NewInMemoryPeerStore() *InMemoryPeerStore {
	return &InMemoryPeerStore{peers: make(map[string]types.PeerInfo)}
}

func (s *InMemoryPeerStore) Put(peer types.PeerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[peer.ID] = peer
}

func (s *InMemoryPeerStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

func (s *InMemoryPeerStore) Get(id string) (types.PeerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	return p, ok
}

func (s *InMemoryPeerStore) List() []types.PeerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.PeerInfo, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// RemoteExecutor invokes toolName on peerID with args and returns its
// result. The broker speaks no wire protocol itself (spec §4.10); a
// caller injects one via Broker.SetRemoteExecutor.
type RemoteExecutor func(peerID, toolName string, args map[string]interface{}) (interface{}, error)

// Broker owns the peer registry and dispatches remote tool calls
// through an injected RemoteExecutor, with load-based selection and
// failover (spec §4.10).
type Broker struct {
	store       PeerStore
	localPeerID string

	mu            sync.RWMutex
	remote        RemoteExecutor
	localRegistry *tools.Registry
}

// New builds a Broker with the given PeerStore. localPeerID identifies
// this process's own peer id; a random one is generated if empty.
func New(store PeerStore, localPeerID string) *Broker {
	if localPeerID == "" {
		localPeerID = uuid.NewString()
	}
	return &Broker{store: store, localPeerID: localPeerID}
}

// SetRemoteExecutor injects the transport used for remote tool calls.
func (b *Broker) SetRemoteExecutor(exec RemoteExecutor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remote = exec
}

func (b *Broker) remoteExecutor() RemoteExecutor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.remote
}

// GetLocalPeerID returns this broker's own peer identity.
func (b *Broker) GetLocalPeerID() string {
	return b.localPeerID
}

// RegisterPeer adds a peer or, for an already-known id, re-registers it
// as a heartbeat: LastSeen is always stamped to now so periodic
// re-registration is what keeps a peer out of the health monitor's
// staleness window.
func (b *Broker) RegisterPeer(peer types.PeerInfo) {
	if peer.ID == "" {
		peer.ID = uuid.NewString()
	}
	peer.LastSeen = time.Now()
	if peer.Status == "" {
		peer.Status = types.PeerOnline
	}
	b.store.Put(peer)
}

// UnregisterPeer removes a peer from the registry.
func (b *Broker) UnregisterPeer(id string) {
	b.store.Delete(id)
}

// GetPeer looks up one peer by id.
func (b *Broker) GetPeer(id string) (types.PeerInfo, bool) {
	return b.store.Get(id)
}

// GetPeers returns every known peer.
func (b *Broker) GetPeers() []types.PeerInfo {
	return b.store.List()
}

// UpdatePeerStatus sets a peer's status and, if load >= 0, its load.
// load of -1 leaves the current load unchanged. LastSeen is untouched:
// it reflects the peer's own heartbeat, not a status change made on
// its behalf by the broker.
func (b *Broker) UpdatePeerStatus(id string, status types.PeerStatus, load int) {
	peer, ok := b.store.Get(id)
	if !ok {
		return
	}
	peer.Status = status
	if load >= 0 {
		peer.Load = load
	}
	b.store.Put(peer)
}

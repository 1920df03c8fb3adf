package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogpipe/core/pkg/errs"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/types"
)

func newBroker() *Broker {
	return New(NewInMemoryPeerStore(), "local-1")
}

func TestRegisterPeer_AssignsDefaultsAndStampsLastSeen(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}})

	peer, ok := b.GetPeer("p1")
	require.True(t, ok)
	assert.Equal(t, types.PeerOnline, peer.Status)
	assert.WithinDuration(t, time.Now(), peer.LastSeen, time.Second)
}

func TestUnregisterPeer_RemovesFromRegistry(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1"})
	b.UnregisterPeer("p1")

	_, ok := b.GetPeer("p1")
	assert.False(t, ok)
}

func TestBestPeer_PicksLowestLoadAmongOnlineAdvertisers(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 80})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Tools: []string{"job"}, Load: 10})
	b.RegisterPeer(types.PeerInfo{ID: "p3", Tools: []string{"other"}, Load: 0})

	peer, ok := b.bestPeer("job")
	require.True(t, ok)
	assert.Equal(t, "p2", peer.ID)
}

func TestBestPeer_IgnoresOfflineAndBusyPeers(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 5, Status: types.PeerOffline})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Tools: []string{"job"}, Load: 50, Status: types.PeerBusy})
	b.RegisterPeer(types.PeerInfo{ID: "p3", Tools: []string{"job"}, Load: 99, Status: types.PeerOnline})

	peer, ok := b.bestPeer("job")
	require.True(t, ok)
	assert.Equal(t, "p3", peer.ID)
}

// TestCallToolWithFailover_TwoPeersSecondFailsFirstSucceeds mirrors the
// two-peer failover scenario: p1(load=80), p2(load=10) both advertise
// "job"; p2 fails once then p1 succeeds; exactly two invocations, in
// order p2 then p1.
func TestCallToolWithFailover_TwoPeersSecondFailsFirstSucceeds(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 80})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Tools: []string{"job"}, Load: 10})

	var order []string
	b.SetRemoteExecutor(func(peerID, toolName string, args map[string]interface{}) (interface{}, error) {
		order = append(order, peerID)
		if peerID == "p2" {
			return nil, errors.New("p2 down")
		}
		return "success", nil
	})

	result, err := b.CallToolWithFailover(context.Background(), nil, "job", nil, 2)
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, []string{"p2", "p1"}, order)

	p2, _ := b.GetPeer("p2")
	assert.Equal(t, types.PeerBusy, p2.Status)
	assert.Equal(t, 30, p2.Load)

	p1, _ := b.GetPeer("p1")
	assert.Equal(t, types.PeerOnline, p1.Status)
	assert.Equal(t, 70, p1.Load)
}

func TestCallToolWithFailover_NoAvailablePeersFailsImmediately(t *testing.T) {
	b := newBroker()
	result, err := b.CallToolWithFailover(context.Background(), nil, "job", nil, 3)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoAvailablePeers)
}

func TestCallToolWithFailover_SinglePeerBecomesUnavailableAfterOneFailure(t *testing.T) {
	// A lone peer that fails goes busy and drops out of selection, so
	// the next attempt reports no available peers rather than retrying
	// the same peer (spec invariant 6).
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 0})

	b.SetRemoteExecutor(func(peerID, toolName string, args map[string]interface{}) (interface{}, error) {
		return nil, errors.New("always down")
	})

	result, err := b.CallToolWithFailover(context.Background(), nil, "job", nil, 2)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoAvailablePeers)
}

func TestCallToolWithFailover_MultiplePeersAllFailReturnsLastError(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 50})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Tools: []string{"job"}, Load: 10})

	b.SetRemoteExecutor(func(peerID, toolName string, args map[string]interface{}) (interface{}, error) {
		return nil, fmt.Errorf("%s down", peerID)
	})

	result, err := b.CallToolWithFailover(context.Background(), nil, "job", nil, 2)
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "down")

	var remoteErr *errs.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, errs.CodeRemoteFailed, remoteErr.Code)
	assert.NotEmpty(t, remoteErr.PeerID)
}

func TestSweepStalePeers_MarksOfflineAndEmitsUnhealthy(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 10})

	stale, _ := b.GetPeer("p1")
	stale.LastSeen = time.Now().Add(-200 * time.Second)
	b.store.Put(stale)

	var emitted []events.Event
	bus := events.New()
	bus.On(events.EventPeerUnhealthy, func(e events.Event) { emitted = append(emitted, e) })

	b.sweepStalePeers(bus)

	peer, _ := b.GetPeer("p1")
	assert.Equal(t, types.PeerOffline, peer.Status)
	assert.Equal(t, 100, peer.Load)
	require.Len(t, emitted, 1)
}

func TestSweepStalePeers_LeavesFreshPeersUntouched(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Load: 10})

	b.sweepStalePeers(nil)

	peer, _ := b.GetPeer("p1")
	assert.Equal(t, types.PeerOnline, peer.Status)
}

func TestGetLoadStats_ComputesAcrossOnlinePeersOnly(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Load: 10, Status: types.PeerOnline})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Load: 90, Status: types.PeerOnline})
	b.RegisterPeer(types.PeerInfo{ID: "p3", Load: 50, Status: types.PeerOffline})

	stats := b.GetLoadStats()
	assert.Equal(t, 2, stats.OnlinePeers)
	assert.Equal(t, 10, stats.MinLoad)
	assert.Equal(t, 90, stats.MaxLoad)
	assert.Equal(t, 50.0, stats.AvgLoad)
}

func TestGetLoadStats_NoOnlinePeersIsZeroValue(t *testing.T) {
	b := newBroker()
	stats := b.GetLoadStats()
	assert.Equal(t, LoadStats{}, stats)
}

func TestDiscoverTools_RemoteSynthesizesDescriptorsForOnlinePeersOnly(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Status: types.PeerOnline})
	b.RegisterPeer(types.PeerInfo{ID: "p2", Tools: []string{"other"}, Status: types.PeerOffline})

	b.SetRemoteExecutor(func(peerID, toolName string, args map[string]interface{}) (interface{}, error) {
		return "remote-result", nil
	})

	descriptors := b.DiscoverTools(true)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "job", descriptors[0].Name)
	assert.True(t, descriptors[0].Remote)

	result, err := descriptors[0].Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "remote-result", result)
}

func TestDiscoverTools_ExcludesRemoteWhenNotRequested(t *testing.T) {
	b := newBroker()
	b.RegisterPeer(types.PeerInfo{ID: "p1", Tools: []string{"job"}, Status: types.PeerOnline})

	descriptors := b.DiscoverTools(false)
	assert.Empty(t, descriptors)
}

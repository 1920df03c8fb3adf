package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/cogpipe/core/pkg/errs"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/resilience"
	"github.com/cogpipe/core/pkg/types"
)

// ErrNoAvailablePeers is returned when no online peer advertises the
// requested tool.
var ErrNoAvailablePeers = errs.ErrNoAgentsAvailable

// failoverMaxBackoff bounds the 2^attempt·1000ms backoff from spec
// §4.10; the spec names the growth formula but not a ceiling, so the
// delay is capped at one minute (wider than the executor's 10s cap)
// rather than growing unbounded across many retries.
const failoverMaxBackoff = time.Minute

// bestPeer picks the online peer advertising toolName with the lowest
// load (spec §4.10's best-peer selection).
func (b *Broker) bestPeer(toolName string) (types.PeerInfo, bool) {
	var best types.PeerInfo
	found := false
	for _, peer := range b.GetPeers() {
		if peer.Status != types.PeerOnline {
			continue
		}
		if !advertises(peer, toolName) {
			continue
		}
		if !found || peer.Load < best.Load {
			best = peer
			found = true
		}
	}
	return best, found
}

func advertises(peer types.PeerInfo, toolName string) bool {
	for _, t := range peer.Tools {
		if t == toolName {
			return true
		}
	}
	return false
}

// CallToolWithFailover implements spec §4.10's retry loop: each
// attempt selects the best remaining online peer (a peer that just
// failed is marked busy and so drops out of selection, satisfying the
// "don't retry the same peer until others are exhausted" invariant),
// invokes the remote executor, and on failure backs off
// 2^attempt·1000ms before the next attempt.
func (b *Broker) CallToolWithFailover(ctx context.Context, bus *events.Bus, toolName string, args map[string]interface{}, maxRetries int) (interface{}, error) {
	var lastErr error
	var lastPeerID string

	for attempt := 0; attempt < maxRetries; attempt++ {
		peer, ok := b.bestPeer(toolName)
		if !ok {
			return nil, ErrNoAvailablePeers
		}

		exec := b.remoteExecutor()
		if exec == nil {
			return nil, fmt.Errorf("no remote executor configured")
		}

		if bus != nil {
			bus.Publish(events.Event{Stage: events.EventFailoverAttempt, Status: events.StatusStart, Data: peer})
		}

		result, err := exec(peer.ID, toolName, args)
		if err == nil {
			b.UpdatePeerStatus(peer.ID, types.PeerOnline, maxInt(0, peer.Load-10))
			return result, nil
		}

		lastErr = err
		lastPeerID = peer.ID
		b.UpdatePeerStatus(peer.ID, types.PeerBusy, minInt(100, peer.Load+20))
		if bus != nil {
			bus.Publish(events.Event{Stage: events.EventFailoverError, Status: events.StatusError, Data: map[string]interface{}{"peer": peer.ID, "error": err.Error()}})
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := resilience.BoundedBackoff(time.Second, attempt, failoverMaxBackoff)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		return nil, ErrNoAvailablePeers
	}
	return nil, &errs.RemoteError{Code: errs.CodeRemoteFailed, PeerID: lastPeerID, Message: lastErr.Error()}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

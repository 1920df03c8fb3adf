package broker

import (
	"context"
	"time"

	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/types"
)

const staleAfter = 120 * time.Second

// StartHealthMonitoring periodically scans peers and marks any whose
// LastSeen is older than 120s as offline with load forced to 100,
// emitting peer:unhealthy (spec §4.10). It runs until ctx is
// cancelled.
func (b *Broker) StartHealthMonitoring(ctx context.Context, bus *events.Bus, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweepStalePeers(bus)
		}
	}
}

func (b *Broker) sweepStalePeers(bus *events.Bus) {
	now := time.Now()
	for _, peer := range b.GetPeers() {
		if peer.Status == types.PeerOffline {
			continue
		}
		if now.Sub(peer.LastSeen) <= staleAfter {
			continue
		}
		b.UpdatePeerStatus(peer.ID, types.PeerOffline, 100)
		if bus != nil {
			bus.Publish(events.Event{Stage: events.EventPeerUnhealthy, Status: events.StatusError, Data: peer.ID})
		}
	}
}

// LoadStats summarizes load across currently-online peers (spec §4.10).
type LoadStats struct {
	AvgLoad     float64
	MinLoad     int
	MaxLoad     int
	OnlinePeers int
}

// GetLoadStats computes LoadStats over online peers. With no online
// peers, every field is zero.
func (b *Broker) GetLoadStats() LoadStats {
	var stats LoadStats
	sum := 0
	first := true

	for _, peer := range b.GetPeers() {
		if peer.Status != types.PeerOnline {
			continue
		}
		stats.OnlinePeers++
		sum += peer.Load
		if first || peer.Load < stats.MinLoad {
			stats.MinLoad = peer.Load
		}
		if first || peer.Load > stats.MaxLoad {
			stats.MaxLoad = peer.Load
		}
		first = false
	}

	if stats.OnlinePeers > 0 {
		stats.AvgLoad = float64(sum) / float64(stats.OnlinePeers)
	}
	return stats
}

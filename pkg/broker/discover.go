package broker

import (
	"fmt"

	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

// ToolDescriptor is one entry in a discoverTools listing: either a
// local capability or a synthesized call into a remote peer (spec
// §4.10).
type ToolDescriptor struct {
	Name        string
	Description string
	Remote      bool
	PeerID      string
	Execute     func(args map[string]interface{}) (interface{}, error)
}

// SetLocalRegistry wires the local tool registry so DiscoverTools can
// list this process's own capabilities alongside remote ones.
func (b *Broker) SetLocalRegistry(registry *tools.Registry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.localRegistry = registry
}

// DiscoverTools returns local tool registrations, and, when
// includeRemote is true, one synthesized ToolDescriptor per tool name
// advertised by each online peer. A synthesized descriptor's Execute
// calls the injected RemoteExecutor with (peerId, toolName, args); its
// description falls back to a generic placeholder when the local
// registry has no matching capability to borrow a description from.
func (b *Broker) DiscoverTools(includeRemote bool) []ToolDescriptor {
	var out []ToolDescriptor

	b.mu.RLock()
	registry := b.localRegistry
	b.mu.RUnlock()

	if registry != nil {
		for _, cap := range registry.GetAvailableTools() {
			capability := cap
			out = append(out, ToolDescriptor{
				Name:        string(capability.Type),
				Description: capability.Description,
				Execute: func(args map[string]interface{}) (interface{}, error) {
					_, exec, ok := registry.Get(capability.Type)
					if !ok {
						return nil, fmt.Errorf("tool %s no longer registered", capability.Type)
					}
					method, _ := args["method"].(string)
					return exec(method, args)
				},
			})
		}
	}

	if !includeRemote {
		return out
	}

	for _, peer := range b.GetPeers() {
		if peer.Status != types.PeerOnline {
			continue
		}
		for _, toolName := range peer.Tools {
			peerID := peer.ID
			name := toolName
			out = append(out, ToolDescriptor{
				Name:        name,
				Description: describeRemoteTool(registry, name),
				Remote:      true,
				PeerID:      peerID,
				Execute: func(args map[string]interface{}) (interface{}, error) {
					exec := b.remoteExecutor()
					if exec == nil {
						return nil, fmt.Errorf("no remote executor configured")
					}
					return exec(peerID, name, args)
				},
			})
		}
	}

	return out
}

func describeRemoteTool(registry *tools.Registry, name string) string {
	if registry != nil {
		if capability, _, ok := registry.GetByAlias(name); ok {
			return capability.Description
		}
	}
	return fmt.Sprintf("remote tool %q", name)
}

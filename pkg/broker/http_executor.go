package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cogpipe/core/pkg/types"
)

// HTTPRemoteExecutor is the default RemoteExecutor: it POSTs
// {tool, args} to the target peer's HTTP address and decodes a JSON
// response, with the call wrapped in otelhttp.NewTransport so peer
// calls carry a trace context the same way the teacher's
// telemetry.NewTracedHTTPClient instruments outbound requests.
type HTTPRemoteExecutor struct {
	client   *http.Client
	resolver func(peerID string) (types.PeerInfo, bool)
}

// NewHTTPRemoteExecutor builds an HTTPRemoteExecutor that resolves a
// peer id to its host:port via resolve (typically Broker.GetPeer).
func NewHTTPRemoteExecutor(resolve func(peerID string) (types.PeerInfo, bool)) *HTTPRemoteExecutor {
	return &HTTPRemoteExecutor{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		resolver: resolve,
	}
}

type remoteCallRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// Execute implements the broker.RemoteExecutor signature.
func (h *HTTPRemoteExecutor) Execute(peerID, toolName string, args map[string]interface{}) (interface{}, error) {
	peer, ok := h.resolver(peerID)
	if !ok {
		return nil, fmt.Errorf("unknown peer %q", peerID)
	}

	body, err := json.Marshal(remoteCallRequest{Tool: toolName, Args: args})
	if err != nil {
		return nil, fmt.Errorf("encode remote call: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/tools/execute", peer.Host, peer.Port)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote call to %s failed: %w", peerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("peer %s returned %d: %s", peerID, resp.StatusCode, string(msg))
	}

	var result interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode remote response: %w", err)
	}
	return result, nil
}

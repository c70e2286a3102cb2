package coordination

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/oracle"
)

// Client is an HTTP client for a remote coordination Server, implementing
// the same subcommand surface the engine exposes in-process.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	agentID    string

	heartbeatCtx    context.Context
	heartbeatCancel context.CancelFunc
	heartbeatWg     sync.WaitGroup

	mu sync.RWMutex
}

// NewClient creates a client against baseURL (e.g. "https://coordinator:7331"),
// authenticating with token if non-empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithConfig creates a client from a ClientConfig.
func NewClientWithConfig(config *ClientConfig) *Client {
	c := NewClient(config.ServerURL, config.Token)
	c.agentID = config.AgentID
	return c
}

// SetAgentID sets the agent id this client acts as.
func (c *Client) SetAgentID(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentID = agentID
}

// AgentID returns the agent id this client acts as.
func (c *Client) AgentID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agentID
}

// RegisterAgent registers spec with the coordinator.
func (c *Client) RegisterAgent(ctx context.Context, spec AgentSpec) (*AgentState, error) {
	var state AgentState
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/agents", RegisterRequest{Spec: spec}, &state); err != nil {
		return nil, fmt.Errorf("register agent failed: %w", err)
	}
	c.mu.Lock()
	c.agentID = spec.ID
	c.mu.Unlock()
	return &state, nil
}

// Deregister removes this client's agent from the coordinator.
func (c *Client) Deregister(ctx context.Context) error {
	agentID := c.AgentID()
	if agentID == "" {
		return nil
	}
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/agents/"+agentID, nil, nil); err != nil {
		return fmt.Errorf("deregister failed: %w", err)
	}
	return nil
}

// Heartbeat renews this client's agent liveness at the given status.
func (c *Client) Heartbeat(ctx context.Context, status AgentStatus) error {
	agentID := c.AgentID()
	if agentID == "" {
		return fmt.Errorf("not registered")
	}
	var resp HeartbeatResponse
	req := HeartbeatRequest{AgentID: agentID, Status: status}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/agents/"+agentID+"/heartbeat", req, &resp); err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	if !resp.Acknowledged {
		return fmt.Errorf("heartbeat not acknowledged: %s", resp.Message)
	}
	return nil
}

// StartHeartbeat begins sending a heartbeat at interval until StopHeartbeat
// is called, reporting statusFunc()'s result each tick (defaults to Active).
func (c *Client) StartHeartbeat(interval time.Duration, statusFunc func() AgentStatus) {
	c.mu.Lock()
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
	}
	c.heartbeatCtx, c.heartbeatCancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	c.heartbeatWg.Add(1)
	go func() {
		defer c.heartbeatWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				status := AgentStatusActive
				if statusFunc != nil {
					status = statusFunc()
				}
				ctx, cancel := context.WithTimeout(c.heartbeatCtx, 10*time.Second)
				_ = c.Heartbeat(ctx, status)
				cancel()
			case <-c.heartbeatCtx.Done():
				return
			}
		}
	}()
}

// StopHeartbeat stops the background heartbeat goroutine.
func (c *Client) StopHeartbeat() {
	c.mu.Lock()
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
		c.heartbeatCancel = nil
	}
	c.mu.Unlock()
	c.heartbeatWg.Wait()
}

// CreateWork enqueues a new work item.
func (c *Client) CreateWork(ctx context.Context, req CreateWorkRequest) (*WorkItem, error) {
	var item WorkItem
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/work", req, &item); err != nil {
		return nil, fmt.Errorf("create work failed: %w", err)
	}
	return &item, nil
}

// PeekWork lists the currently available work items.
func (c *Client) PeekWork(ctx context.Context) ([]WorkItem, error) {
	var resp struct {
		Items []WorkItem `json:"items"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/work", nil, &resp); err != nil {
		return nil, fmt.Errorf("peek work failed: %w", err)
	}
	return resp.Items, nil
}

// ClaimWork requests the next eligible item for this client's agent.
func (c *Client) ClaimWork(ctx context.Context) (*WorkItem, error) {
	agentID := c.AgentID()
	if agentID == "" {
		return nil, fmt.Errorf("not registered")
	}
	var resp WorkClaimResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/work/claim", WorkClaimRequest{AgentID: agentID}, &resp); err != nil {
		return nil, fmt.Errorf("claim work failed: %w", err)
	}
	if !resp.Claimed {
		return nil, nil
	}
	return resp.Item, nil
}

// UpdateProgress reports progress on workID.
func (c *Client) UpdateProgress(ctx context.Context, workID string, progress int) error {
	agentID := c.AgentID()
	req := WorkUpdateRequest{AgentID: agentID, Progress: &progress}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/work/"+workID+"/progress", req, nil); err != nil {
		return fmt.Errorf("update progress failed: %w", err)
	}
	return nil
}

// CompleteWork finalizes workID with outcome.
func (c *Client) CompleteWork(ctx context.Context, workID string, outcome WorkOutcome) error {
	agentID := c.AgentID()
	req := WorkUpdateRequest{AgentID: agentID, Outcome: &outcome}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/work/"+workID+"/complete", req, nil); err != nil {
		return fmt.Errorf("complete work failed: %w", err)
	}
	return nil
}

// Coordinate dispatches a coordination request.
func (c *Client) Coordinate(ctx context.Context, req CoordinateRequest) (*CoordinateResult, error) {
	var res CoordinateResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/coordinate", req, &res); err != nil {
		return nil, fmt.Errorf("coordinate failed: %w", err)
	}
	return &res, nil
}

// Status retrieves the coordination engine's aggregate snapshot.
func (c *Client) Status(ctx context.Context) (*StateResponse, error) {
	var state StateResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/status", nil, &state); err != nil {
		return nil, fmt.Errorf("status failed: %w", err)
	}
	return &state, nil
}

// AnalyzePriorities requests a best-effort oracle snapshot analysis from
// the coordinator. A nil result (with a nil error) means the oracle was
// unavailable; this mirrors Engine.AnalyzePriorities's own contract.
func (c *Client) AnalyzePriorities(ctx context.Context) (*oracle.Analysis, error) {
	var analysis oracle.Analysis
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/analyze-priorities", nil, &analysis); err != nil {
		return nil, fmt.Errorf("analyze priorities failed: %w", err)
	}
	if analysis.Confidence == 0 && len(analysis.Recommendations) == 0 {
		return nil, nil
	}
	return &analysis, nil
}

// Health checks the coordinator's liveness.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// StreamEvents opens an SSE connection, returning a channel of events that
// closes when ctx is cancelled or the connection drops.
func (c *Client) StreamEvents(ctx context.Context) (<-chan Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	events := make(chan Event, 100)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		var eventType string
		var data strings.Builder

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)

			if line == "" {
				if data.Len() > 0 && eventType != "" {
					var event Event
					if err := json.Unmarshal([]byte(data.String()), &event); err == nil {
						select {
						case events <- event:
						default:
						}
					}
				}
				eventType = ""
				data.Reset()
				continue
			}

			if strings.HasPrefix(line, "event:") {
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			} else if strings.HasPrefix(line, "data:") {
				data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()

	return events, nil
}

// Close stops heartbeats and releases client resources.
func (c *Client) Close() error {
	c.StopHeartbeat()
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiResp APIResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Error != "" {
			return fmt.Errorf("%s (code: %s)", apiResp.Error, apiResp.Code)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		var apiResp APIResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Success {
			if apiResp.Data != nil {
				dataBytes, err := json.Marshal(apiResp.Data)
				if err != nil {
					return fmt.Errorf("failed to re-marshal response data: %w", err)
				}
				if err := json.Unmarshal(dataBytes, result); err != nil {
					return fmt.Errorf("failed to decode response data: %w", err)
				}
				return nil
			}
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

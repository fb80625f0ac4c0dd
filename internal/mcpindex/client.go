package mcpindex

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/prompt-stack/rudi/internal/errorkinds"
)

const defaultTimeout = 15 * time.Second

// SpawnSpec describes how to launch a stack for tool discovery.
type SpawnSpec struct {
	ID      string
	Bin     string
	Args    []string
	Cwd     string
	Env     []string
	Timeout time.Duration
}

// DiscoverResult is the outcome of probing one stack.
type DiscoverResult struct {
	Tools []Tool
	Error string
}

// stdioClient drives the handshake over one subprocess's stdio pipes,
// with its own request-id counter starting at 1 (spec §4.G).
type stdioClient struct {
	encoder *json.Encoder
	reader  *bufio.Reader
	nextID  int
}

// Discover spawns the stack, performs initialize -> notifications/initialized
// -> tools/list, and returns the normalised tool list. It never returns a
// Go error for handshake/spawn/timeout failures — those are captured in
// DiscoverResult.Error so a bad stack never blocks indexing the rest.
func Discover(spec SpawnSpec) DiscoverResult {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Env = spec.Env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return DiscoverResult{Error: (&errorkinds.StackSpawnError{ID: spec.ID, Cause: err}).Error()}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return DiscoverResult{Error: (&errorkinds.StackSpawnError{ID: spec.ID, Cause: err}).Error()}
	}
	_, _ = cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return DiscoverResult{Error: (&errorkinds.StackSpawnError{ID: spec.ID, Cause: err}).Error()}
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}()

	client := &stdioClient{encoder: json.NewEncoder(stdin), reader: bufio.NewReader(stdout), nextID: 1}

	tools, err := client.handshakeAndListTools(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			ms := timeout.Milliseconds()
			return DiscoverResult{Error: (&errorkinds.StackTimeoutError{ID: spec.ID, Ms: ms}).Error()}
		}
		return DiscoverResult{Error: (&errorkinds.StackSpawnError{ID: spec.ID, Cause: err}).Error()}
	}

	return DiscoverResult{Tools: tools}
}

func (c *stdioClient) handshakeAndListTools(ctx context.Context) ([]Tool, error) {
	if err := c.call(c.initializeRequest()); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	initResp, err := c.readResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("read initialize response: %w", err)
	}
	if initResp.Error != nil {
		return nil, fmt.Errorf("initialize failed: %s", initResp.Error.Message)
	}

	if err := c.notify(Notification{JSONRPC: "2.0", Method: "notifications/initialized", Params: map[string]interface{}{}}); err != nil {
		return nil, fmt.Errorf("notifications/initialized: %w", err)
	}

	reqID := c.nextID
	c.nextID++
	if err := c.call(Request{JSONRPC: "2.0", ID: reqID, Method: "tools/list"}); err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}
	toolsResp, err := c.readResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tools/list response: %w", err)
	}
	if toolsResp.Error != nil {
		return nil, fmt.Errorf("tools/list failed: %s", toolsResp.Error.Message)
	}

	var result toolsListResult
	if len(toolsResp.Result) > 0 {
		if err := json.Unmarshal(toolsResp.Result, &result); err != nil {
			return nil, fmt.Errorf("decode tools/list result: %w", err)
		}
	}

	tools := make([]Tool, 0, len(result.Tools))
	for _, raw := range result.Tools {
		tools = append(tools, normalizeTool(raw))
	}
	return tools, nil
}

func (c *stdioClient) initializeRequest() Request {
	id := c.nextID
	c.nextID++
	return Request{
		JSONRPC: "2.0", ID: id, Method: "initialize",
		Params: InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]interface{}{},
			ClientInfo:      ClientInfo{Name: "rudi", Version: "1.0.0"},
		},
	}
}

func (c *stdioClient) call(req Request) error      { return c.encoder.Encode(req) }
func (c *stdioClient) notify(n Notification) error { return c.encoder.Encode(n) }

// readResponse reads one line-delimited JSON-RPC response, bailing out
// early if ctx is already done (the watchdog timeout kills the process,
// which unblocks the read with an EOF/error).
func (c *stdioClient) readResponse(ctx context.Context) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		if err == io.EOF {
			return nil, fmt.Errorf("stack closed stdout before responding")
		}
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

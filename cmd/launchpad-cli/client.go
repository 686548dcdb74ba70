package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"launchpad/rpc"
)

type client struct {
	endpoint string
	caller   string
	token    string
	http     *http.Client
}

func newClientFromEnv() *client {
	endpoint := strings.TrimSpace(os.Getenv("LAUNCHPAD_RPC_URL"))
	if endpoint == "" {
		endpoint = "http://localhost:8545"
	}
	return &client{
		endpoint: endpoint,
		caller:   strings.TrimSpace(os.Getenv("LAUNCHPAD_CALLER")),
		token:    strings.TrimSpace(os.Getenv("LAUNCHPAD_RPC_TOKEN")),
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// applyGlobalFlags strips --rpc, --as and --token wherever they appear.
func (c *client) applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		matched := false
		for _, f := range []struct {
			name   string
			target *string
		}{
			{"--rpc", &c.endpoint},
			{"--as", &c.caller},
			{"--token", &c.token},
		} {
			if arg == f.name {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("missing value for %s", f.name)
				}
				*f.target = args[i+1]
				i++
				matched = true
				break
			}
			if strings.HasPrefix(arg, f.name+"=") {
				*f.target = strings.TrimPrefix(arg, f.name+"=")
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, arg)
		}
	}
	return out, nil
}

type callError struct {
	Code    int
	Message string
	Kind    string
}

func (e *callError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
	}
	return e.Message
}

func (c *client) call(method string, param interface{}) (json.RawMessage, error) {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if param != nil {
		payload["params"] = []interface{}{param}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.caller != "" {
		req.Header.Set(rpc.CallerHeader, c.caller)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int           `json:"code"`
			Message string        `json:"message"`
			Data    rpc.ErrorData `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s (HTTP %d)", c.endpoint, resp.StatusCode)
	}
	if rpcResp.Error != nil {
		return nil, &callError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message, Kind: rpcResp.Error.Data.Kind}
	}
	return rpcResp.Result, nil
}

func printCall(c *client, stdout, stderr io.Writer, method string, param interface{}) int {
	result, err := c.call(method, param)
	if err != nil {
		fmt.Fprintf(stderr, "RPC error: %v\n", err)
		return 1
	}
	printJSONResult(stdout, result)
	return 0
}

func printJSONResult(stdout io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(stdout, "No result.")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		fmt.Fprintln(stdout, string(result))
		return
	}
	fmt.Fprintln(stdout, buf.String())
}

package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ExecuteInput is the wire shape shared by python_execute and
// bash_execute.
type ExecuteInput struct {
	Code    string            `json:"code" jsonschema:"The code to execute"`
	Env     map[string]string `json:"env,omitempty" jsonschema:"Set environment variables. (Optional)"`
	Timeout float64           `json:"timeout,omitempty" jsonschema:"Timeout in seconds (default: 300)"`
}

// ModulesInput is the wire shape of get_python_modules.
type ModulesInput struct {
	Timeout float64 `json:"timeout,omitempty" jsonschema:"Timeout in seconds (default: 15)"`
}

// PythonExecuteTool adapts ExecutePython to the MCP tool contract.
func (h *Handler) PythonExecuteTool(ctx context.Context, req *mcp.CallToolRequest, in ExecuteInput) (*mcp.CallToolResult, any, error) {
	out, err := h.ExecutePython(ctx, in.Code, in.Env, secondsToDuration(in.Timeout))
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// BashExecuteTool adapts ExecuteBash to the MCP tool contract.
func (h *Handler) BashExecuteTool(ctx context.Context, req *mcp.CallToolRequest, in ExecuteInput) (*mcp.CallToolResult, any, error) {
	out, err := h.ExecuteBash(ctx, in.Code, in.Env, secondsToDuration(in.Timeout))
	if err != nil {
		return nil, nil, err
	}
	return textResult(out), nil, nil
}

// PythonModulesTool adapts PythonModules to the MCP tool contract. The
// module list is returned as a JSON array.
func (h *Handler) PythonModulesTool(ctx context.Context, req *mcp.CallToolRequest, in ModulesInput) (*mcp.CallToolResult, any, error) {
	modules, err := h.PythonModules(ctx, secondsToDuration(in.Timeout))
	if err != nil {
		return nil, nil, err
	}
	encoded, err := json.Marshal(modules)
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(encoded)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

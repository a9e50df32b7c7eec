package host

import (
	"encoding/json"
	"errors"

	corehost "github.com/kilianp07/pfexport/core/host"
)

// Gateway endpoints.
const (
	PingPath    = "/api/v1/ping"
	CallPath    = "/api/v1/call"
	MetricsPath = "/metrics"
)

// Wire method names. They follow the host's own automation API so the
// gateway inside the host stays a thin pass-through.
const (
	MethodActiveProject = "GetActiveProject"
	MethodProjectFolder = "GetProjectFolder"
	MethodFromStudyCase = "GetFromStudyCase"
	MethodCurrentScript = "GetCurrentScript"
	MethodGetAttribute  = "GetAttribute"
	MethodSetAttribute  = "SetAttribute"
	MethodExecute       = "Execute"
	MethodGetContents   = "GetContents"
	MethodSearchObject  = "SearchObject"
	MethodShow          = "Show"
	MethodAutoScaleX    = "DoAutoScaleX"
	MethodAutoScaleY    = "DoAutoScaleY"
	MethodStringParam   = "GetInputParameterString"
	MethodFloatParam    = "GetInputParameterDouble"
)

// Error codes carried in CallResponse.Code.
const (
	CodeNotFound  = "not_found"
	CodeNoProject = "no_project"
	CodeInternal  = "internal"
)

// Ref is an object reference on the wire. The application itself is the
// empty handle.
type Ref struct {
	Handle string `json:"$ref"`
	Class  string `json:"class,omitempty"`
	Name   string `json:"name,omitempty"`
}

// CallRequest invokes Method on the object identified by Target.
type CallRequest struct {
	Target string            `json:"target"`
	Method string            `json:"method"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

// CallResponse carries either a result or an error.
type CallResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// codeFor maps an error to its wire code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, corehost.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, corehost.ErrNoProject):
		return CodeNoProject
	default:
		return CodeInternal
	}
}

// errFor maps a wire code back to the matching sentinel.
func errFor(code string) error {
	switch code {
	case CodeNotFound:
		return corehost.ErrNotFound
	case CodeNoProject:
		return corehost.ErrNoProject
	default:
		return nil
	}
}

// asRef decodes raw as a Ref when it carries a handle.
func asRef(raw json.RawMessage) (Ref, bool) {
	var r Ref
	if err := json.Unmarshal(raw, &r); err != nil || r.Handle == "" {
		return Ref{}, false
	}
	return r, true
}

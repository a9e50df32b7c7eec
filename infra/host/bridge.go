package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	corehost "github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/infra/logger"
)

// BridgeConfig defines how to reach the automation gateway.
type BridgeConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// BridgeClient talks to an automation gateway running inside the host
// application over HTTP.
type BridgeClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     logger.Logger
}

// NewBridgeClient creates a client for the gateway at cfg.URL.
func NewBridgeClient(cfg BridgeConfig) *BridgeClient {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return &BridgeClient{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     logger.New("host-bridge"),
	}
}

// Connect checks that the gateway answers and returns the application handle.
func (c *BridgeClient) Connect(ctx context.Context) (corehost.Application, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", corehost.ErrNoConnection, err)
	}
	c.log.Infof("connected to host gateway at %s", c.baseURL)
	return &bridgeApp{c: &session{BridgeClient: c, ctx: ctx}}, nil
}

// Ping checks the gateway health endpoint.
func (c *BridgeClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PingPath, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway ping status %d", resp.StatusCode)
	}
	return nil
}

func (c *BridgeClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// session binds gateway calls to the context given to Connect.
type session struct {
	*BridgeClient
	ctx context.Context
}

// call invokes a method on the gateway and returns the raw result.
func (c *session) call(target, method string, args ...any) (json.RawMessage, error) {
	creq := CallRequest{Target: target, Method: method}
	for _, a := range args {
		if obj, ok := a.(*bridgeObject); ok {
			a = obj.ref
		}
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode %s argument: %w", method, err)
		}
		creq.Args = append(creq.Args, raw)
	}
	body, err := json.Marshal(creq)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.baseURL+CallPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		if cerr := c.ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("%s: %w", method, cerr)
		}
		return nil, fmt.Errorf("%w: %v", corehost.ErrNoConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var cresp CallResponse
	if err := json.NewDecoder(resp.Body).Decode(&cresp); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if cresp.Error != "" {
		if sentinel := errFor(cresp.Code); sentinel != nil {
			return nil, fmt.Errorf("%s: %w: %s", method, sentinel, cresp.Error)
		}
		return nil, fmt.Errorf("%s: %s", method, cresp.Error)
	}
	c.log.Debugw("gateway call", map[string]any{"target": target, "method": method})
	return cresp.Result, nil
}

func (c *session) object(raw json.RawMessage) (corehost.Object, error) {
	if isNull(raw) {
		return nil, nil
	}
	ref, ok := asRef(raw)
	if !ok {
		return nil, fmt.Errorf("expected object reference, got %s", string(raw))
	}
	return &bridgeObject{c: c, ref: ref}, nil
}

func (c *session) requireObject(raw json.RawMessage, what string) (corehost.Object, error) {
	obj, err := c.object(raw)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", corehost.ErrNotFound, what)
	}
	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

type bridgeApp struct{ c *session }

func (a *bridgeApp) ActiveProject() (corehost.Object, error) {
	raw, err := a.c.call("", MethodActiveProject)
	if err != nil {
		return nil, err
	}
	return a.c.object(raw)
}

func (a *bridgeApp) ProjectFolder(kind string) (corehost.Object, error) {
	raw, err := a.c.call("", MethodProjectFolder, kind)
	if err != nil {
		return nil, err
	}
	return a.c.requireObject(raw, "folder "+kind)
}

func (a *bridgeApp) FromStudyCase(class string) (corehost.Object, error) {
	raw, err := a.c.call("", MethodFromStudyCase, class)
	if err != nil {
		return nil, err
	}
	return a.c.requireObject(raw, class+" in study case")
}

func (a *bridgeApp) CurrentScript() (corehost.Script, error) {
	raw, err := a.c.call("", MethodCurrentScript)
	if err != nil {
		return nil, err
	}
	ref, ok := asRef(raw)
	if !ok {
		return nil, errors.New("no current script")
	}
	return &bridgeScript{c: a.c, handle: ref.Handle}, nil
}

type bridgeObject struct {
	c   *session
	ref Ref
}

func (o *bridgeObject) Name() string  { return o.ref.Name }
func (o *bridgeObject) Class() string { return o.ref.Class }

func (o *bridgeObject) Attribute(name string) (any, error) {
	raw, err := o.c.call(o.ref.Handle, MethodGetAttribute, name)
	if err != nil {
		return nil, err
	}
	if ref, ok := asRef(raw); ok {
		return &bridgeObject{c: o.c, ref: ref}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (o *bridgeObject) SetAttribute(name string, value any) error {
	if obj, ok := value.(corehost.Object); ok {
		bo, ok := obj.(*bridgeObject)
		if !ok {
			return fmt.Errorf("set %s: object %s does not belong to this gateway", name, obj.Name())
		}
		value = bo
	}
	_, err := o.c.call(o.ref.Handle, MethodSetAttribute, name, value)
	return err
}

func (o *bridgeObject) Execute() (int, error) {
	raw, err := o.c.call(o.ref.Handle, MethodExecute)
	if err != nil {
		return 0, err
	}
	var code int
	if err := json.Unmarshal(raw, &code); err != nil {
		return 0, fmt.Errorf("execute result: %w", err)
	}
	return code, nil
}

func (o *bridgeObject) Contents(pattern string, recursive bool) ([]corehost.Object, error) {
	raw, err := o.c.call(o.ref.Handle, MethodGetContents, pattern, recursive)
	if err != nil {
		return nil, err
	}
	var refs []Ref
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("contents result: %w", err)
	}
	out := make([]corehost.Object, len(refs))
	for i, r := range refs {
		out[i] = &bridgeObject{c: o.c, ref: r}
	}
	return out, nil
}

func (o *bridgeObject) Search(path string) (corehost.Object, error) {
	raw, err := o.c.call(o.ref.Handle, MethodSearchObject, path)
	if err != nil {
		return nil, err
	}
	return o.c.requireObject(raw, path)
}

func (o *bridgeObject) Show() error {
	_, err := o.c.call(o.ref.Handle, MethodShow)
	return err
}

func (o *bridgeObject) AutoScaleX() error {
	_, err := o.c.call(o.ref.Handle, MethodAutoScaleX)
	return err
}

func (o *bridgeObject) AutoScaleY() error {
	_, err := o.c.call(o.ref.Handle, MethodAutoScaleY)
	return err
}

type bridgeScript struct {
	c      *session
	handle string
}

func (s *bridgeScript) StringParam(name string) (string, error) {
	raw, err := s.c.call(s.handle, MethodStringParam, name)
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("parameter %s: %w", name, err)
	}
	return v, nil
}

func (s *bridgeScript) FloatParam(name string) (float64, error) {
	raw, err := s.c.call(s.handle, MethodFloatParam, name)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	return v, nil
}

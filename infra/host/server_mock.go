package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	corehost "github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/infra/logger"
)

// GatewayMock serves any Application over the gateway protocol. Together
// with NewDemoHost it stands in for the host when developing locally.
type GatewayMock struct {
	addr  string
	app   corehost.Application
	log   logger.Logger
	srv   *http.Server
	calls *prometheus.CounterVec
	gath  prometheus.Gatherer

	mu      sync.Mutex
	handles map[string]any
	byValue map[any]string
}

// NewGatewayMock creates a gateway for app listening on addr. Metrics are
// registered on reg; a nil registerer selects the default one.
func NewGatewayMock(addr string, app corehost.Application, reg prometheus.Registerer) *GatewayMock {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	log := logger.New("gateway-mock")
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pfexport_gateway_calls_total",
		Help: "Gateway calls handled by the mock host",
	}, []string{"method", "status"})
	if err := reg.Register(calls); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				calls = exist
			} else {
				log.Errorf("existing collector for pfexport_gateway_calls_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	gath, _ := reg.(prometheus.Gatherer)
	return &GatewayMock{
		addr:    addr,
		app:     app,
		log:     log,
		calls:   calls,
		gath:    gath,
		handles: make(map[string]any),
		byValue: make(map[any]string),
	}
}

// Handler returns the HTTP routes of the gateway.
func (g *GatewayMock) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PingPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			g.log.Errorf("write pong: %v", err)
		}
	})
	mux.HandleFunc(CallPath, g.handleCall)
	if g.gath != nil {
		mux.Handle(MetricsPath, promhttp.HandlerFor(g.gath, promhttp.HandlerOpts{}))
	}
	return mux
}

// Addr returns the listening address once Start has been called.
func (g *GatewayMock) Addr() string { return g.addr }

// Start runs the HTTP server until the context is canceled.
func (g *GatewayMock) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.addr)
	if err != nil {
		return err
	}
	g.addr = ln.Addr().String()
	g.srv = &http.Server{Handler: g.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := g.srv.Shutdown(shutdownCtx); err != nil {
			g.log.Errorf("shutdown gateway: %v", err)
		}
		cancel()
	}()
	g.log.Infof("host gateway mock listening on %s", g.addr)
	err = g.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (g *GatewayMock) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.calls.WithLabelValues("invalid", "error").Inc()
		g.reply(w, http.StatusBadRequest, CallResponse{Error: "bad request", Code: CodeInternal})
		return
	}
	result, err := g.dispatch(req)
	if err != nil {
		g.calls.WithLabelValues(req.Method, "error").Inc()
		g.log.Warnf("%s on %q failed: %v", req.Method, req.Target, err)
		g.reply(w, http.StatusOK, CallResponse{Error: err.Error(), Code: codeFor(err)})
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		g.calls.WithLabelValues(req.Method, "error").Inc()
		g.reply(w, http.StatusInternalServerError, CallResponse{Error: err.Error(), Code: CodeInternal})
		return
	}
	g.calls.WithLabelValues(req.Method, "ok").Inc()
	g.reply(w, http.StatusOK, CallResponse{Result: raw})
}

func (g *GatewayMock) reply(w http.ResponseWriter, status int, resp CallResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.log.Errorf("write response: %v", err)
	}
}

//gocyclo:ignore
func (g *GatewayMock) dispatch(req CallRequest) (any, error) {
	if req.Target == "" {
		return g.dispatchApp(req)
	}
	target, ok := g.lookup(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: handle %s", corehost.ErrNotFound, req.Target)
	}
	if s, ok := target.(corehost.Script); ok {
		return g.dispatchScript(s, req)
	}
	obj, ok := target.(corehost.Object)
	if !ok {
		return nil, fmt.Errorf("handle %s is not an object", req.Target)
	}
	switch req.Method {
	case MethodGetAttribute:
		name, err := stringArg(req.Args, 0)
		if err != nil {
			return nil, err
		}
		v, err := obj.Attribute(name)
		if err != nil {
			return nil, err
		}
		if o, ok := v.(corehost.Object); ok {
			return g.ref(o), nil
		}
		return v, nil
	case MethodSetAttribute:
		name, err := stringArg(req.Args, 0)
		if err != nil {
			return nil, err
		}
		if len(req.Args) < 2 {
			return nil, fmt.Errorf("%s: missing value", req.Method)
		}
		value, err := g.value(req.Args[1])
		if err != nil {
			return nil, err
		}
		return nil, obj.SetAttribute(name, value)
	case MethodExecute:
		return obj.Execute()
	case MethodGetContents:
		pattern, err := stringArg(req.Args, 0)
		if err != nil {
			return nil, err
		}
		recursive := false
		if len(req.Args) > 1 {
			if err := json.Unmarshal(req.Args[1], &recursive); err != nil {
				return nil, fmt.Errorf("recursive flag: %w", err)
			}
		}
		children, err := obj.Contents(pattern, recursive)
		if err != nil {
			return nil, err
		}
		refs := make([]Ref, len(children))
		for i, c := range children {
			refs[i] = g.ref(c)
		}
		return refs, nil
	case MethodSearchObject:
		path, err := stringArg(req.Args, 0)
		if err != nil {
			return nil, err
		}
		found, err := obj.Search(path)
		if err != nil {
			if errors.Is(err, corehost.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return g.ref(found), nil
	case MethodShow:
		return nil, obj.Show()
	case MethodAutoScaleX:
		return nil, obj.AutoScaleX()
	case MethodAutoScaleY:
		return nil, obj.AutoScaleY()
	}
	return nil, fmt.Errorf("unknown method %s", req.Method)
}

func (g *GatewayMock) dispatchApp(req CallRequest) (any, error) {
	switch req.Method {
	case MethodActiveProject:
		p, err := g.app.ActiveProject()
		if err != nil || p == nil {
			return nil, err
		}
		return g.ref(p), nil
	case MethodProjectFolder, MethodFromStudyCase:
		arg, err := stringArg(req.Args, 0)
		if err != nil {
			return nil, err
		}
		var obj corehost.Object
		if req.Method == MethodProjectFolder {
			obj, err = g.app.ProjectFolder(arg)
		} else {
			obj, err = g.app.FromStudyCase(arg)
		}
		if err != nil {
			return nil, err
		}
		return g.ref(obj), nil
	case MethodCurrentScript:
		s, err := g.app.CurrentScript()
		if err != nil {
			return nil, err
		}
		return Ref{Handle: g.handle(s), Class: "ComPython", Name: "script"}, nil
	}
	return nil, fmt.Errorf("unknown method %s", req.Method)
}

func (g *GatewayMock) dispatchScript(s corehost.Script, req CallRequest) (any, error) {
	name, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	switch req.Method {
	case MethodStringParam:
		return s.StringParam(name)
	case MethodFloatParam:
		return s.FloatParam(name)
	}
	return nil, fmt.Errorf("unknown method %s", req.Method)
}

func (g *GatewayMock) ref(o corehost.Object) Ref {
	return Ref{Handle: g.handle(o), Class: o.Class(), Name: o.Name()}
}

// handle returns the stable handle of v, allocating one on first use.
func (g *GatewayMock) handle(v any) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.byValue[v]; ok {
		return h
	}
	h := uuid.NewString()
	g.handles[h] = v
	g.byValue[v] = h
	return h
}

func (g *GatewayMock) lookup(h string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.handles[h]
	return v, ok
}

// value decodes a SetAttribute argument, resolving object references.
func (g *GatewayMock) value(raw json.RawMessage) (any, error) {
	if ref, ok := asRef(raw); ok {
		v, found := g.lookup(ref.Handle)
		if !found {
			return nil, fmt.Errorf("%w: handle %s", corehost.ErrNotFound, ref.Handle)
		}
		return v, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func stringArg(args []json.RawMessage, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return "", fmt.Errorf("argument %d: %w", i, err)
	}
	return s, nil
}

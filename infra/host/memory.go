package host

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	corehost "github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/core/normalize"
)

// ResultSet is the data held by an in-memory results object.
type ResultSet struct {
	// Objects holds the object row of the full header, one per column.
	Objects []string
	// Labels holds the variable labels.
	Labels []string
	Rows   [][]float64
}

// MemoryHost is an in-process host application. It backs the mock gateway
// and tests; commands write real files so the export pipeline can run end
// to end without the simulation program.
type MemoryHost struct {
	mu        sync.Mutex
	project   *MemoryObject
	folders   map[string]*MemoryObject
	studyCase map[string]*MemoryObject
	script    *MemoryScript
	calls     []string
}

// NewMemoryHost returns an empty host without an active project.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		folders:   make(map[string]*MemoryObject),
		studyCase: make(map[string]*MemoryObject),
		script:    &MemoryScript{Strings: map[string]string{}, Floats: map[string]float64{}},
	}
}

// ActivateProject sets the active project and returns it.
func (h *MemoryHost) ActivateProject(name string) *MemoryObject {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.project = h.newObject(name, "IntPrj")
	return h.project
}

// DeactivateProject closes the active project.
func (h *MemoryHost) DeactivateProject() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.project = nil
}

// AddFolder registers a project folder of the given kind.
func (h *MemoryHost) AddFolder(kind string, folder *MemoryObject) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.folders[kind] = folder
}

// AddToStudyCase registers an object returned by FromStudyCase.
func (h *MemoryHost) AddToStudyCase(obj *MemoryObject) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.studyCase[obj.class] = obj
}

// Script returns the parameters of the current script.
func (h *MemoryHost) Script() *MemoryScript { return h.script }

// Calls returns the object method calls made so far as "name.Method" entries.
func (h *MemoryHost) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	copy(out, h.calls)
	return out
}

// NewObject creates a detached object owned by h.
func (h *MemoryHost) NewObject(name, class string) *MemoryObject {
	return h.newObject(name, class)
}

func (h *MemoryHost) newObject(name, class string) *MemoryObject {
	return &MemoryObject{host: h, name: name, class: class, attrs: make(map[string]any)}
}

func (h *MemoryHost) record(obj *MemoryObject, method string) {
	h.mu.Lock()
	h.calls = append(h.calls, obj.name+"."+method)
	h.mu.Unlock()
}

func (h *MemoryHost) ActiveProject() (corehost.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.project == nil {
		return nil, nil
	}
	return h.project, nil
}

func (h *MemoryHost) ProjectFolder(kind string) (corehost.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.project == nil {
		return nil, corehost.ErrNoProject
	}
	f, ok := h.folders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: folder %s", corehost.ErrNotFound, kind)
	}
	return f, nil
}

func (h *MemoryHost) FromStudyCase(class string) (corehost.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.project == nil {
		return nil, corehost.ErrNoProject
	}
	obj, ok := h.studyCase[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s in study case", corehost.ErrNotFound, class)
	}
	return obj, nil
}

func (h *MemoryHost) CurrentScript() (corehost.Script, error) { return h.script, nil }

// MemoryObject is an object of a MemoryHost.
type MemoryObject struct {
	host     *MemoryHost
	name     string
	class    string
	mu       sync.Mutex
	attrs    map[string]any
	children []*MemoryObject
	// OnExecute is run by Execute. Nil commands succeed without effect.
	OnExecute func(*MemoryObject) (int, error)
	// Results is the data of a results object.
	Results *ResultSet
}

// Add appends child objects and returns o.
func (o *MemoryObject) Add(children ...*MemoryObject) *MemoryObject {
	o.mu.Lock()
	o.children = append(o.children, children...)
	o.mu.Unlock()
	return o
}

func (o *MemoryObject) Name() string  { return o.name }
func (o *MemoryObject) Class() string { return o.class }

func (o *MemoryObject) Attribute(name string) (any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch name {
	case "e:loc_name", "loc_name":
		return o.name, nil
	}
	v, ok := o.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: attribute %s of %s", corehost.ErrNotFound, name, o.name)
	}
	return v, nil
}

func (o *MemoryObject) SetAttribute(name string, value any) error {
	o.mu.Lock()
	o.attrs[name] = value
	o.mu.Unlock()
	return nil
}

func (o *MemoryObject) Execute() (int, error) {
	o.host.record(o, "Execute")
	if o.OnExecute == nil {
		return 0, nil
	}
	return o.OnExecute(o)
}

func (o *MemoryObject) Contents(pattern string, recursive bool) ([]corehost.Object, error) {
	o.mu.Lock()
	children := append([]*MemoryObject(nil), o.children...)
	o.mu.Unlock()
	var out []corehost.Object
	for _, c := range children {
		ok, err := filepath.Match(pattern, c.fullName())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
		if recursive {
			sub, err := c.Contents(pattern, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func (o *MemoryObject) Search(path string) (corehost.Object, error) {
	cur := o
	for _, part := range strings.Split(path, `\`) {
		if part == "" {
			continue
		}
		next := cur.child(part)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", corehost.ErrNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

func (o *MemoryObject) child(part string) *MemoryObject {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, c := range o.children {
		if c.fullName() == part || c.name == part {
			return c
		}
	}
	return nil
}

func (o *MemoryObject) fullName() string { return o.name + "." + o.class }

func (o *MemoryObject) Show() error       { o.host.record(o, "Show"); return nil }
func (o *MemoryObject) AutoScaleX() error { o.host.record(o, "AutoScaleX"); return nil }
func (o *MemoryObject) AutoScaleY() error { o.host.record(o, "AutoScaleY"); return nil }

// MemoryScript holds script input parameters.
type MemoryScript struct {
	Strings map[string]string
	Floats  map[string]float64
}

func (s *MemoryScript) StringParam(name string) (string, error) {
	v, ok := s.Strings[name]
	if !ok {
		return "", fmt.Errorf("%w: parameter %s", corehost.ErrNotFound, name)
	}
	return v, nil
}

func (s *MemoryScript) FloatParam(name string) (float64, error) {
	v, ok := s.Floats[name]
	if !ok {
		return 0, fmt.Errorf("%w: parameter %s", corehost.ErrNotFound, name)
	}
	return v, nil
}

// WritePlot is the OnExecute behaviour of a graphics write command. It writes
// a placeholder image to the file named by the e:f attribute.
func WritePlot(cmd *MemoryObject) (int, error) {
	v, err := cmd.Attribute("e:f")
	if err != nil {
		return 1, nil
	}
	file, _ := v.(string)
	if file == "" {
		return 1, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.Black)
	}
	f, err := os.Create(file)
	if err != nil {
		return 1, err
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		return 1, err
	}
	return 0, nil
}

// WriteResults is the OnExecute behaviour of a result export command. It
// honours the separator, header and file name attributes set on the command.
func WriteResults(cmd *MemoryObject) (int, error) {
	cmd.mu.Lock()
	attrs := make(map[string]any, len(cmd.attrs))
	for k, v := range cmd.attrs {
		attrs[k] = v
	}
	cmd.mu.Unlock()

	res, ok := attrs["pResult"].(*MemoryObject)
	if !ok || res.Results == nil {
		return 1, nil
	}
	file, _ := attrs["f_name"].(string)
	if file == "" {
		return 1, nil
	}
	colSep, decSep := ";", ","
	if toInt(attrs["iopt_sep"]) == 0 {
		if s, ok := attrs["col_Sep"].(string); ok && s != "" {
			colSep = s
		}
		if s, ok := attrs["dec_Sep"].(string); ok && s != "" {
			decSep = s
		}
	}

	f, err := os.Create(file)
	if err != nil {
		return 1, err
	}
	defer func() { _ = f.Close() }()
	w := csv.NewWriter(f)
	w.Comma = []rune(colSep)[0]
	rs := res.Results
	if toInt(attrs["ciopt_head"]) == 1 {
		if err := w.Write(rs.Objects); err != nil {
			return 1, err
		}
	}
	if err := w.Write(rs.Labels); err != nil {
		return 1, err
	}
	for _, row := range rs.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strings.Replace(normalize.FormatDecimal(v), ",", decSep, 1)
		}
		if err := w.Write(rec); err != nil {
			return 1, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 1, err
	}
	return 0, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return -1
}

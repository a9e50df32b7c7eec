package host

import (
	"math"
	"strings"

	corehost "github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/core/normalize"
)

// DemoReferenceLabel is the unmapped channel carried by the demo results.
const DemoReferenceLabel = "m:Uref:ctrl in kV"

// DemoPages are the plot pages of the demo desktop.
var DemoPages = []string{"Voltage", "Current", "Power", "Frequency"}

// NewDemoHost returns a MemoryHost with an active test bench project: the
// graphics export command, a desktop with plot pages, a result export
// command and a results object holding a voltage dip.
func NewDemoHost() *MemoryHost {
	h := NewMemoryHost()
	h.ActivateProject("PP-MTB")

	cmd := h.NewObject("graphExport", corehost.ClassWriteCommand)
	cmd.OnExecute = WritePlot
	netdat := h.NewObject("Network Data", "IntPrjfolder").Add(
		h.NewObject("PP-MTB", "IntFolder").Add(
			h.NewObject("exportResults", "IntFolder").Add(cmd),
		),
	)
	h.AddFolder(corehost.FolderNetworkData, netdat)

	desktop := h.NewObject("Desktop", corehost.ClassDesktop)
	for _, p := range DemoPages {
		desktop.Add(h.NewObject(p, corehost.ClassPlotPage))
	}
	h.AddToStudyCase(desktop)

	comRes := h.NewObject("Export", corehost.ClassResultExport)
	comRes.OnExecute = WriteResults
	h.AddToStudyCase(comRes)

	elmRes := h.NewObject("All calculations", corehost.ClassResults)
	elmRes.Results = demoResults(101, 0.01)
	h.AddToStudyCase(elmRes)

	s := h.Script()
	s.Strings["name"] = "demo"
	s.Strings["path"] = "."
	s.Strings["refName"] = "uRef"
	s.Floats["refScale"] = 2.0
	return h
}

// demoResults builds n samples of every mapped channel plus the reference
// channel. The voltage dips to 0.5 pu between 0.2 s and 0.35 s.
func demoResults(n int, step float64) *ResultSet {
	labels := normalize.DefaultMapping().Labels()
	labels = append(labels, DemoReferenceLabel)
	objects := make([]string, len(labels))
	for i, l := range labels {
		switch {
		case l == "b:tnow in s":
			objects[i] = "All calculations"
		case strings.HasPrefix(l, "s:"):
			objects[i] = `PPM\Meas.StaPqmea`
		case l == DemoReferenceLabel:
			objects[i] = `PPM\Ctrl.ElmDsl`
		default:
			objects[i] = `Grid\bus2.ElmTerm`
		}
	}
	rows := make([][]float64, n)
	for r := range rows {
		t := float64(r) * step
		u := 1.0
		if t >= 0.2 && t < 0.35 {
			u = 0.5
		}
		row := make([]float64, len(labels))
		for i, l := range labels {
			row[i] = demoValue(l, t, u)
		}
		rows[r] = row
	}
	return &ResultSet{Objects: objects, Labels: labels, Rows: rows}
}

func demoValue(label string, t, u float64) float64 {
	round := func(v float64) float64 { return math.Round(v*1e6) / 1e6 }
	switch {
	case label == "b:tnow in s":
		return round(t)
	case label == DemoReferenceLabel:
		return round(2 * u)
	case label == "m:fehz in Hz":
		return 50
	case label == "m:phiu1:bus2 in deg":
		return round(30 * (1 - u))
	case label == "m:cosphisum:bus2":
		return 1
	case strings.HasPrefix(label, "m:u2"), strings.HasPrefix(label, "m:i2"), strings.HasPrefix(label, "s:p2"), strings.HasPrefix(label, "s:q2"):
		return 0
	case strings.HasPrefix(label, "m:u"):
		return round(u)
	case strings.HasPrefix(label, "m:i1Q"), label == "s:q in p.u.":
		return round(2 * (1 - u))
	case strings.HasPrefix(label, "m:i"):
		return round(0.8 / u)
	case label == "s:p in p.u.":
		return 0.8
	}
	return 0
}

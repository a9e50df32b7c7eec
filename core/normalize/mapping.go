package normalize

import "sort"

// Mapping associates host variable labels with canonical column names.
type Mapping map[string]string

var defaultMapping = Mapping{
	"b:tnow in s":         "t[s]",
	"m:u:bus2:A in p.u.":  "uA[pu]",
	"m:u:bus2:B in p.u.":  "uB[pu]",
	"m:u:bus2:C in p.u.":  "uC[pu]",
	"m:u1:bus2 in p.u.":   "u1[pu]",
	"m:u2:bus2 in p.u.":   "u2[pu]",
	"m:phiu1:bus2 in deg": "phi[deg]",
	"m:i:bus2:A in p.u.":  "iA[pu]",
	"m:i:bus2:B in p.u.":  "iB[pu]",
	"m:i:bus2:C in p.u.":  "iC[pu]",
	"m:i1:bus2 in p.u.":   "i1[pu]",
	"m:i2:bus2 in p.u.":   "i2[pu]",
	"m:i1P:bus2 in p.u.":  "i1d[pu]",
	"m:i1Q:bus2 in p.u.":  "i1q[pu]",
	"m:i2P:bus2 in p.u.":  "i2d[pu]",
	"m:i2Q:bus2 in p.u.":  "i2q[pu]",
	"m:cosphisum:bus2":    "cosphi[-]",
	"m:fehz in Hz":        "f[hz]",
	"s:p in p.u.":         "p[pu]",
	"s:q in p.u.":         "q[pu]",
	"s:p2 in p.u.":        "p2[pu]",
	"s:q2 in p.u.":        "q2[pu]",
}

// DefaultMapping returns a copy of the built-in label table for the PCC
// measurement channels (bus2) of the test bench.
func DefaultMapping() Mapping {
	return defaultMapping.With(nil)
}

// With returns a copy of m extended with overrides. An override with an
// empty canonical name removes the label.
func (m Mapping) With(overrides map[string]string) Mapping {
	out := make(Mapping, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Unmapped returns the columns that have no entry in m, in input order.
func (m Mapping) Unmapped(columns []string) []string {
	var left []string
	for _, c := range columns {
		if _, ok := m[c]; !ok {
			left = append(left, c)
		}
	}
	return left
}

// Labels returns the host labels sorted alphabetically.
func (m Mapping) Labels() []string {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

package shapes

import (
	"errors"
	"fmt"
	"strings"
)

var ErrShapeNotRecognized = errors.New("shape not recognized")

// Entry binds a keyword to the shape it selects.
type Entry struct {
	Keyword string
	Shape   Shape
}

// Vocabulary is an ordered, read-only list of entries. Resolution is
// first-match in declaration order.
type Vocabulary struct {
	entries []Entry
	byName  map[string]int
}

// NewVocabulary validates that keywords are non-empty, lowercase and unique.
func NewVocabulary(entries ...Entry) (*Vocabulary, error) {
	v := &Vocabulary{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		kw := e.Keyword
		if kw == "" {
			return nil, fmt.Errorf("entry %d: empty keyword", i)
		}
		if kw != strings.ToLower(kw) {
			return nil, fmt.Errorf("entry %d: keyword %q must be lowercase", i, kw)
		}
		if e.Shape == nil {
			return nil, fmt.Errorf("entry %d: keyword %q has no shape", i, kw)
		}
		if _, dup := v.byName[kw]; dup {
			return nil, fmt.Errorf("entry %d: duplicate keyword %q", i, kw)
		}
		v.byName[kw] = len(v.entries)
		v.entries = append(v.entries, e)
	}
	return v, nil
}

// Resolve returns the first entry whose keyword occurs anywhere in decoded.
// The caller lowercases decoded; matching is a plain substring test, so
// "hinged" matches "hinge" and position in the text plays no part.
func (v *Vocabulary) Resolve(decoded string) (Entry, error) {
	for _, e := range v.entries {
		if strings.Contains(decoded, e.Keyword) {
			return e, nil
		}
	}
	return Entry{}, ErrShapeNotRecognized
}

// Lookup finds an entry by exact keyword.
func (v *Vocabulary) Lookup(keyword string) (Entry, bool) {
	i, ok := v.byName[keyword]
	if !ok {
		return Entry{}, false
	}
	return v.entries[i], true
}

func (v *Vocabulary) Keywords() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.Keyword
	}
	return out
}

func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *Vocabulary) Len() int { return len(v.entries) }

// Default is the built-in vocabulary. Order matters: earlier keywords win.
func Default() *Vocabulary {
	v, err := NewVocabulary(defaultEntries()...)
	if err != nil {
		panic(err)
	}
	return v
}

func defaultEntries() []Entry {
	hollow := Cylinder{Radius: 1.0 / 3, Height: 1}
	rod := Cylinder{Radius: 0.2, Height: 1}
	return []Entry{
		{"sphere", Sphere{Radius: 1}},
		{"cube", Box{X: 1, Y: 1, Z: 1}},
		{"cylinder", Cylinder{Radius: 0.5, Height: 1}},
		{"cone", Cone{Radius: 0.5, Height: 1}},
		{"pyramid", Pyramid{}},
		{"torus", Torus{Major: 0.5, Minor: 1.0 / 6}},
		{"prism", Prism{Sides: 6, Radius: 1, Height: 1}},
		{"ellipsoid", Ellipsoid{RX: 1, RY: 0.75, RZ: 0.5}},
		{"wedge", Wedge{}},
		{"tube", hollow},
		{"hollow_cylinder", hollow},

		{"bracket", Box{X: 1, Y: 0.5, Z: 0.5}},
		{"bolt", rod},
		{"screw", rod},
		{"nut", Cylinder{Radius: 0.5, Height: 0.1}},
		{"thread", Cylinder{Radius: 0.2, Height: 1, Sections: 32}},
		{"hole", Cylinder{Radius: 0.5, Height: 1}},
		{"slot", Box{X: 1, Y: 0.5, Z: 0.25}},
		{"fillet", Sphere{Radius: 1}},
		{"chamfer", Cylinder{Radius: 0.25, Height: 0.1}},
		{"boss", Cylinder{Radius: 0.5, Height: 0.25}},
		{"rib", Box{X: 1, Y: 0.1, Z: 1}},
		{"web", Box{X: 0.1, Y: 1, Z: 1}},
		{"gear", Cylinder{Radius: 1, Height: 0.1}},
		{"pin", rod},
		{"hinge", Cylinder{Radius: 0.25, Height: 0.5}},
		{"joint", Sphere{Radius: 1}},
		{"mount", Box{X: 2, Y: 1, Z: 0.25}},
		{"base_plate", Box{X: 1, Y: 1, Z: 0.1}},

		{"lofted_shape", Prism{Sides: 3, Radius: 1, Height: 1}},
		{"revolved_shape", Revolved{}},
		{"swept_shape", Prism{Sides: 6, Radius: 1, Height: 1}},
		{"extruded_shape", Prism{Sides: 4, Radius: 1, Height: 1}},
		{"shell", Cylinder{Radius: 1, Height: 0.5}},
	}
}

package modify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	cases := []struct {
		text   string
		ok     bool
		action Action
		value  float64
		axis   Axis
	}{
		{"increase length by 10 mm", true, Increase, 10, AxisX},
		{"decrease size by 5 mm", true, Decrease, 5, Uniform},
		{"increase the width by 2.5mm", true, Increase, 2.5, AxisY},
		{"please decrease height by   7 mm now", true, Decrease, 7, AxisZ},
		{"increase length and width by 3 mm", true, Increase, 3, AxisX},
		{"Increase length by 10 mm", false, "", 0, Uniform},
		{"increase by 10 mm", true, Increase, 10, Uniform},
		{"increase length by 10 cm", false, "", 0, Uniform},
		{"banana", false, "", 0, Uniform},
		{"", false, "", 0, Uniform},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			in, ok := Parse(tc.text)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.action, in.Action)
			assert.InDelta(t, tc.value, in.Value, 1e-12)
			assert.Equal(t, tc.axis, in.Axis)
		})
	}
}

func TestInstruction_Scale(t *testing.T) {
	assert.InDelta(t, 1.1, Instruction{Action: Increase, Value: 10}.Scale(), 1e-12)
	assert.InDelta(t, 0.95, Instruction{Action: Decrease, Value: 5}.Scale(), 1e-12)
}

func TestEngine_FactorsProperty(t *testing.T) {
	plain := &Engine{}
	signed := &Engine{opts: Options{SignedAxisScaling: true}}
	rapid.Check(t, func(t *rapid.T) {
		in := Instruction{
			Action: rapid.SampledFrom([]Action{Increase, Decrease}).Draw(t, "action"),
			Value:  float64(rapid.IntRange(0, 99).Draw(t, "value")),
			Axis:   rapid.SampledFrom([]Axis{Uniform, AxisX, AxisY, AxisZ}).Draw(t, "axis"),
		}
		f := plain.Factors(in)
		g := signed.Factors(in)
		if in.Axis == Uniform {
			if f != g || f[0] != in.Scale() || f[1] != f[0] || f[2] != f[0] {
				t.Fatalf("uniform factors %v %v for %+v", f, g, in)
			}
			return
		}
		k := int(in.Axis) - 1
		for i := 0; i < 3; i++ {
			if i == k {
				continue
			}
			if f[i] != 1 || g[i] != 1 {
				t.Fatalf("off-axis factor changed: %v %v", f, g)
			}
		}
		if f[k] != 1+in.Delta() {
			t.Fatalf("unsigned axis factor %v for %+v", f[k], in)
		}
		if g[k] != in.Scale() {
			t.Fatalf("signed axis factor %v for %+v", g[k], in)
		}
	})
}

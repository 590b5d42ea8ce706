package requestid

import (
	"regexp"
	"testing"
)

func TestGen_Format(t *testing.T) {
	re := regexp.MustCompile(`^\d{28}$`)
	id := Gen()
	if !re.MatchString(id) {
		t.Fatalf("unexpected id %q", id)
	}
	if Gen() == id {
		t.Fatalf("ids should differ")
	}
}

func TestValid(t *testing.T) {
	for _, ok := range []string{"abc", "2026-01-01_x.y", Gen()} {
		if !Valid(ok) {
			t.Fatalf("%q should be valid", ok)
		}
	}
	for _, bad := range []string{"", "..", "../etc/passwd", "a b", "x/y"} {
		if Valid(bad) {
			t.Fatalf("%q should be invalid", bad)
		}
	}
}

package validate

import (
	"errors"
	"testing"
)

func TestClampLimitOffset(t *testing.T) {
	cases := []struct {
		limit, offset string
		wantL, wantO  int
	}{
		{"", "", 20, 0},
		{"50", "10", 50, 10},
		{"0", "-1", 20, 0},
		{"500", "x", 20, 0},
		{" 7 ", " 3 ", 7, 3},
	}
	for _, tc := range cases {
		l, o := ClampLimitOffset(tc.limit, tc.offset, 20, 100)
		if l != tc.wantL || o != tc.wantO {
			t.Errorf("(%q,%q) = %d,%d want %d,%d", tc.limit, tc.offset, l, o, tc.wantL, tc.wantO)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("got %d %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := ParseID(bad); !errors.Is(err, ErrInvalid) {
			t.Errorf("%q: want ErrInvalid, got %v", bad, err)
		}
	}
}

func TestOptionals(t *testing.T) {
	if b, err := OptionalBool(""); b != nil || err != nil {
		t.Fatalf("empty bool: %v %v", b, err)
	}
	if b, err := OptionalBool("false"); err != nil || b == nil || *b {
		t.Fatalf("false: %v %v", b, err)
	}
	if _, err := OptionalBool("maybe"); err == nil {
		t.Fatal("want error")
	}
	if id, err := OptionalID("9"); err != nil || *id != 9 {
		t.Fatalf("id: %v %v", id, err)
	}
	if id, err := OptionalID(""); id != nil || err != nil {
		t.Fatalf("empty id: %v %v", id, err)
	}
}

func TestRequireBounded(t *testing.T) {
	if s, err := RequireBounded("name", "  Ada  ", 1, 5); err != nil || s != "Ada" {
		t.Fatalf("got %q %v", s, err)
	}
	if _, err := RequireBounded("name", "   ", 1, 5); err == nil {
		t.Fatal("want error for blank")
	}
}

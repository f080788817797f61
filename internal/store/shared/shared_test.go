package shared

import (
	"reflect"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Go  ", "go"},
		{"Café Crème", "cafe creme"},
		{"MACHINE\tlearning", "machine learning"},
		{"   ", ""},
		{"Ångström", "angstrom"},
	}
	for _, c := range cases {
		if got := NormalizeTag(c.in); got != c.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDedupTags(t *testing.T) {
	got := DedupTags([]string{"Go", "go ", "", "Résumé", "resume", "SQL"})
	want := []string{"go", "resume", "sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLikeEscape(t *testing.T) {
	if got := LikeEscape(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("got %q", got)
	}
}

package password

import (
	"errors"
	"testing"
)

func TestHashVerify(t *testing.T) {
	SetParams(Params{Memory: 1024, Iterations: 1, Parallelism: 1})

	phc, err := Hash("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	ok, rehash, err := Verify("correct horse battery", phc)
	if err != nil || !ok || rehash {
		t.Fatalf("ok=%v rehash=%v err=%v", ok, rehash, err)
	}
	if ok, _, _ := Verify("wrong", phc); ok {
		t.Fatal("wrong password accepted")
	}

	SetParams(Params{Memory: 2048, Iterations: 2, Parallelism: 1})
	if !NeedsRehash(phc) {
		t.Fatal("weaker hash should need rehash")
	}
}

func TestCheck(t *testing.T) {
	if _, _, err := Check("  short  "); !errors.Is(err, ErrTooShort) {
		t.Fatalf("want ErrTooShort, got %v", err)
	}
	if _, warn, err := Check("alllowercase"); err != nil || warn == nil {
		t.Fatalf("want warning, got warn=%v err=%v", warn, err)
	}
	if _, warn, err := Check("Tr0ub4dor&3-Horse"); err != nil || warn != nil {
		t.Fatalf("want no warning, got warn=%v err=%v", warn, err)
	}
}

package dedup

import "testing"

func TestSignerDeterministic(t *testing.T) {
	a := NewSigner(128)
	b := NewSigner(128)
	text := "the quick brown fox jumps over the lazy dog"
	sigA := a.Sign(text)
	sigB := b.Sign(text)
	if len(sigA) != 128 || len(sigB) != 128 {
		t.Fatalf("signature lengths = %d, %d, want 128", len(sigA), len(sigB))
	}
	for i := range sigA {
		if sigA[i] != sigB[i] {
			t.Fatalf("signatures differ at slot %d", i)
		}
	}
}

func TestSignEmptyContent(t *testing.T) {
	s := NewSigner(128)
	if sig := s.Sign(""); sig != nil {
		t.Errorf("Sign(empty) = %v, want nil", sig)
	}
	// Fewer words than the shingle size also yields no shingles.
	if sig := s.Sign("two words"); sig != nil {
		t.Errorf("Sign(short) = %v, want nil", sig)
	}
}

func TestJaccardEstimate(t *testing.T) {
	s := NewSigner(128)
	same := "one two three four five six seven eight nine ten"
	sigA := s.Sign(same)
	sigB := s.Sign(same)
	if got := sigA.Jaccard(sigB); got != 1.0 {
		t.Errorf("identical text Jaccard = %v, want 1.0", got)
	}

	other := s.Sign("alpha beta gamma delta epsilon zeta eta theta iota kappa")
	if got := sigA.Jaccard(other); got > 0.2 {
		t.Errorf("disjoint text Jaccard = %v, want near 0", got)
	}

	var empty Signature
	if got := empty.Jaccard(empty); got != 0 {
		t.Errorf("empty Jaccard = %v, want 0", got)
	}
	if got := sigA.Jaccard(nil); got != 0 {
		t.Errorf("Jaccard against nil = %v, want 0", got)
	}
}

func TestShingles(t *testing.T) {
	got := Shingles("a b c d", 3)
	want := map[string]struct{}{"a b c": {}, "b c d": {}}
	if len(got) != len(want) {
		t.Fatalf("Shingles() = %v, want %v", got, want)
	}
	for sh := range want {
		if _, ok := got[sh]; !ok {
			t.Errorf("missing shingle %q", sh)
		}
	}
}

func TestPickBands(t *testing.T) {
	bands, rows := pickBands(0.5, 128)
	if bands*rows != 128 {
		t.Fatalf("bands*rows = %d, want 128", bands*rows)
	}
	if bands < 2 {
		t.Errorf("bands = %d, want a real banding for threshold 0.5", bands)
	}
}

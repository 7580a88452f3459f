package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		`"abc"`:   "abc",
		`W/"abc"`: "abc",
		" abc ":   "abc",
		"*":       "*",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	data := []byte("note")
	if !Matches(ETag(Sum(data)), data) {
		t.Error("quoted digest should match")
	}
	if !Matches("*", data) {
		t.Error("wildcard should match")
	}
	if Matches("stale", data) {
		t.Error("stale digest should not match")
	}
}

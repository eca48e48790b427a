package main

import (
	"math/rand"
	"testing"
)

func TestCheckScenario(t *testing.T) {
	if err := checkScenario(); err != nil {
		t.Fatal(err)
	}
}

func TestParseSizes(t *testing.T) {
	got, err := parseSizes("10, 200,,3000")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{10, 200, 3000}
	if len(got) != len(want) {
		t.Fatalf("parseSizes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseSizes[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	for _, bad := range []string{"abc", "0", "-5"} {
		if _, err := parseSizes(bad); err == nil {
			t.Errorf("parseSizes(%q) should fail", bad)
		}
	}
}

func TestBench(t *testing.T) {
	res := bench(rand.New(rand.NewSource(1)), 500, 64, 3)
	if res.mean < 0 || res.min > res.mean {
		t.Errorf("bench = %+v", res)
	}
}

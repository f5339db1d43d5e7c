package sample

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/pdiddy/case-curator/pkg/types"
)

// caseWithSpread builds a case whose two pair similarities are mean±d/2,
// so its dispersion score is monotone in d.
func caseWithSpread(id string, d float64) types.Case {
	a, b := 0.5-d/2, 0.5+d/2
	c := types.Case{
		ID: id,
		Pairs: []types.DiagnosisPair{
			{PairID: "A", Similarity: a},
			{PairID: "B", Similarity: b},
		},
		ImagePaths: []string{id + ".png"},
	}
	c.SimilarityVariance, c.SimilarityRange = Metrics(c.Pairs)
	return c
}

func pool(n int) []types.Case {
	cases := make([]types.Case, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, caseWithSpread(fmt.Sprintf("case-%03d", i), float64(i)/float64(n)))
	}
	return cases
}

func TestMetrics(t *testing.T) {
	pairs := []types.DiagnosisPair{
		{Similarity: 0.2},
		{Similarity: 0.8},
	}
	variance, spread := Metrics(pairs)
	if math.Abs(variance-0.09) > 1e-9 {
		t.Errorf("variance = %f, want 0.09", variance)
	}
	if math.Abs(spread-0.6) > 1e-9 {
		t.Errorf("range = %f, want 0.6", spread)
	}

	if v, r := Metrics(nil); v != 0 || r != 0 {
		t.Errorf("Metrics(nil) = %f, %f; want zeros", v, r)
	}
}

func TestDispersionMonotone(t *testing.T) {
	lo := Dispersion(caseWithSpread("lo", 0.1))
	hi := Dispersion(caseWithSpread("hi", 0.9))
	if lo >= hi {
		t.Errorf("dispersion(0.1) = %f should be below dispersion(0.9) = %f", lo, hi)
	}
}

func TestTopNSmallPoolUnchanged(t *testing.T) {
	cases := pool(5)
	got := TopN(cases, 10)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i := range got {
		if got[i].ID != cases[i].ID {
			t.Errorf("small pool should come back unchanged, index %d differs", i)
		}
	}
}

func TestTopNKeepsHighestDispersion(t *testing.T) {
	cases := pool(20)
	got := TopN(cases, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}

	// pool() assigns dispersion ascending with index, so the tail of the
	// pool must be selected, highest first.
	want := []string{"case-019", "case-018", "case-017", "case-016", "case-015"}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, w)
		}
	}
}

func TestTopNTiesKeepOriginalOrder(t *testing.T) {
	cases := []types.Case{
		caseWithSpread("first", 0.4),
		caseWithSpread("second", 0.4),
		caseWithSpread("third", 0.4),
	}
	got := TopN(cases, 2)
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("ties should keep input order, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestStratifiedSmallPoolUnchangedContent(t *testing.T) {
	cases := pool(5)
	got := Stratified(cases, 10, rand.New(rand.NewSource(1)))
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	ids := map[string]bool{}
	for _, c := range got {
		ids[c.ID] = true
	}
	for _, c := range cases {
		if !ids[c.ID] {
			t.Errorf("case %s missing from small-pool selection", c.ID)
		}
	}
}

func TestStratifiedSeedDeterminism(t *testing.T) {
	cases := pool(100)

	first := Stratified(cases, 20, rand.New(rand.NewSource(99)))
	second := Stratified(cases, 20, rand.New(rand.NewSource(99)))

	if len(first) != 20 || len(second) != 20 {
		t.Fatalf("lens = %d, %d; want 20", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("same seed diverged at index %d: %s != %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestStratifiedFavorsHighDispersion(t *testing.T) {
	cases := pool(100)
	got := Stratified(cases, 20, rand.New(rand.NewSource(7)))
	if len(got) != 20 {
		t.Fatalf("len = %d, want 20", len(got))
	}

	// 70% of the pick must come from the top dispersion quartile
	// (ids case-074 and above under the nearest-rank cut).
	topTier := 0
	for _, c := range got {
		if c.ID >= "case-074" {
			topTier++
		}
	}
	if topTier != 14 {
		t.Errorf("top-tier picks = %d, want 14", topTier)
	}
}

func TestStratifiedReallocatesShortfall(t *testing.T) {
	// All cases share one dispersion value, so every one lands in the
	// high tier; the medium and low targets must be reallocated there.
	var cases []types.Case
	for i := 0; i < 30; i++ {
		cases = append(cases, caseWithSpread(fmt.Sprintf("flat-%02d", i), 0.5))
	}

	got := Stratified(cases, 10, rand.New(rand.NewSource(3)))
	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestDedupeByImages(t *testing.T) {
	a := caseWithSpread("a", 0.2)
	b := caseWithSpread("b", 0.9)
	b.ImagePaths = []string{"/elsewhere/a.png"} // same basename as a's image

	c := caseWithSpread("c", 0.4)

	kept, dropped := DedupeByImages([]types.Case{a, b, c})
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "c" {
		t.Errorf("kept = %v, want first occurrence a then c", ids(kept))
	}
}

func ids(cases []types.Case) []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.ID
	}
	return out
}

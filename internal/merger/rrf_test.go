package merger

import "testing"

func TestRRFFuseCombinesRanksAcrossSources(t *testing.T) {
	lists := RankedLists{
		"vector": {"a", "b", "c"},
		"graph":  {"b", "a"},
	}
	fused := RRFFuse(lists, DefaultRRFConstant)

	if fused.Scores["a"] <= fused.Scores["c"] {
		t.Fatalf("expected a (ranked in both lists) to outscore c (ranked in one), got a=%f c=%f", fused.Scores["a"], fused.Scores["c"])
	}
	if len(fused.Sources["a"]) != 2 {
		t.Fatalf("expected a to be attributed to both sources, got %v", fused.Sources["a"])
	}
	if len(fused.Sources["c"]) != 1 {
		t.Fatalf("expected c to be attributed to one source, got %v", fused.Sources["c"])
	}
}

func TestRRFFuseDefaultsK(t *testing.T) {
	fused := RRFFuse(RankedLists{"s": {"x"}}, 0)
	want := 1.0 / float64(DefaultRRFConstant+1)
	if fused.Scores["x"] != want {
		t.Fatalf("expected default k=%d applied, got score %f want %f", DefaultRRFConstant, fused.Scores["x"], want)
	}
}

func TestSortedKeysOrdersByScoreDescending(t *testing.T) {
	fused := RRFFuse(RankedLists{
		"a": {"x", "y"},
		"b": {"y"},
	}, DefaultRRFConstant)
	ranked := fused.SortedKeys([]string{"x", "y"})
	if len(ranked) != 2 || ranked[0].Key != "y" {
		t.Fatalf("expected y (dual-source) ranked first, got %+v", ranked)
	}
}

package graphx

import "testing"

func TestParseHeaderAndRows(t *testing.T) {
	header := parseHeader([]interface{}{
		[]interface{}{int64(1), "n.id"},
		[]interface{}{int64(1), "score"},
	})
	if len(header) != 2 || header[0] != "n.id" || header[1] != "score" {
		t.Fatalf("unexpected header: %v", header)
	}

	rows := parseRows([]interface{}{
		[]interface{}{"node-1", 0.42},
		[]interface{}{"node-2", 0.31},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if cellString(rows[0][0]) != "node-1" {
		t.Fatalf("unexpected cell value: %v", rows[0][0])
	}
	if cellFloat(rows[0][1]) != 0.42 {
		t.Fatalf("unexpected float cell: %v", rows[0][1])
	}
}

func TestCellInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int64
	}{
		{int64(7), 7},
		{float64(7), 7},
		{"7", 7},
	}
	for _, tt := range tests {
		if got := cellInt(tt.in); got != tt.want {
			t.Errorf("cellInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeLiteral(t *testing.T) {
	got := sanitizeLiteral(`O'Brien\`)
	want := `O\'Brien\\`
	if got != want {
		t.Fatalf("sanitizeLiteral() = %q, want %q", got, want)
	}
}

func TestKeywordDisjunctionCypher(t *testing.T) {
	if got := keywordDisjunctionCypher("n", nil); got != "true" {
		t.Fatalf("empty keywords should produce 'true', got %q", got)
	}
	got := keywordDisjunctionCypher("n", []string{"AI", "로봇"})
	if got != "(n.name CONTAINS 'AI' OR n.name CONTAINS '로봇')" {
		t.Fatalf("unexpected cypher: %q", got)
	}
}

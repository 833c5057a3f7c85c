package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// RenderContext formats the state's fused result set into the Markdown
// tables the Generator consumes (spec §4.8 "merged context (pre-formatted
// Markdown tables by Merger)").
func RenderContext(state *models.WorkflowState) string {
	var b strings.Builder

	if state.SQLResult != nil && state.SQLResult.Success && len(state.SQLResult.Rows) > 0 {
		writeTable(&b, "", state.SQLResult)
	}

	if len(state.MultiSQLResults) > 1 {
		entities := make([]string, 0, len(state.MultiSQLResults))
		for e := range state.MultiSQLResults {
			entities = append(entities, e)
		}
		sort.Strings(entities)
		for _, e := range entities {
			r := state.MultiSQLResults[e]
			if r != nil && r.Success && len(r.Rows) > 0 {
				writeTable(&b, e, r)
			}
		}
	}

	if len(state.RAGResults) > 0 {
		b.WriteString("### Related results\n\n")
		b.WriteString("| name | entity_type | score | description |\n|---|---|---|---|\n")
		for _, r := range state.RAGResults {
			b.WriteString(fmt.Sprintf("| %s | %s | %.3f | %s |\n", escapeCell(r.Name), escapeCell(r.EntityType), r.Score, escapeCell(r.Description)))
		}
		b.WriteString("\n")
	}

	if len(state.ESStatistics) > 0 {
		entities := make([]string, 0, len(state.ESStatistics))
		for e := range state.ESStatistics {
			entities = append(entities, e)
		}
		sort.Strings(entities)
		for _, e := range entities {
			set := state.ESStatistics[e]
			if set == nil {
				continue
			}
			b.WriteString(fmt.Sprintf("### %s statistics (total %d)\n\n", e, set.Total))
			b.WriteString("| key | count |\n|---|---|\n")
			for _, bucket := range set.Buckets {
				b.WriteString(fmt.Sprintf("| %s | %d |\n", escapeCell(bucket.Key), bucket.Count))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeTable(b *strings.Builder, label string, r *models.SQLResult) {
	if label != "" {
		b.WriteString(fmt.Sprintf("### %s\n\n", label))
	}
	b.WriteString("| " + strings.Join(r.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(r.Columns)) + "\n")
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = escapeCell(fmt.Sprintf("%v", v))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

package sqlx

import (
	"fmt"
	"strings"
)

// forbiddenTokens are rejected anywhere in a non-template SQL statement
// (spec §4.5 "Safety validation").
var forbiddenTokens = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "TRUNCATE", "ALTER", "CREATE",
	"GRANT", "REVOKE", "EXEC", "EXECUTE", "XP_", "SP_",
}

// ValidateSQL enforces the SQL safety rules (spec §4.5). The executor
// applies it to LLM-generated SQL only; statements built from the executor's
// own templates are not passed through it.
func ValidateSQL(query string) error {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("sql must start with SELECT or WITH")
	}

	for _, tok := range forbiddenTokens {
		if containsWord(upper, tok) {
			return fmt.Errorf("sql contains forbidden token %q", tok)
		}
	}

	if strings.Contains(query, "--") || strings.Contains(query, "/*") || strings.Contains(query, "*/") {
		return fmt.Errorf("sql contains comments")
	}

	if strings.Count(query, ";") > 1 {
		return fmt.Errorf("sql contains more than one statement")
	}

	return nil
}

func containsWord(upper, token string) bool {
	idx := strings.Index(upper, token)
	if idx < 0 {
		return false
	}
	before := idx == 0 || !isIdentChar(rune(upper[idx-1]))
	after := idx+len(token) >= len(upper) || !isIdentChar(rune(upper[idx+len(token)]))
	return before && after
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

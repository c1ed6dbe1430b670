package storage

import (
	"fmt"
	"strings"
)

// searchField pairs a searchable column with its relevance weight. Keeping
// the list declarative keeps weights testable apart from SQL assembly and
// makes the ranking policy readable in one place.
type searchField struct {
	column string
	weight int
}

// searchFields in descending signal order: hand-curated tags beat the
// semantic bucket, which beats platform, summary, and finally the noisy
// raw text.
var searchFields = []searchField{
	{"tags", 8},
	{"category", 4},
	{"platform", 3},
	{"ai_summary", 2},
	{"extracted_text", 1},
}

const linkColumns = "id, user_id, original_url, platform, extracted_text, ai_summary, category, thumbnail_url, tags, saved_at"

// buildSearchQuery assembles the ranked search statement. Every
// whitespace-separated token must match at least one searchable column
// (AND of ORs); the score sums per-column weights for every matching
// token, so a token hitting both tags and category contributes both
// weights. Rows order by score descending, then saved_at descending.
func buildSearchQuery(userID int64, query, category string) (string, []any) {
	args := []any{userID}
	where := []string{"user_id = $1"}

	if category != "" {
		args = append(args, category)
		where = append(where, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}

	var tokens []string
	for _, t := range strings.Fields(query) {
		tokens = append(tokens, strings.ToLower(t))
	}

	if len(tokens) == 0 {
		sql := fmt.Sprintf(
			"SELECT %s FROM saved_links WHERE %s ORDER BY saved_at DESC",
			linkColumns, strings.Join(where, " AND "))
		return sql, args
	}

	var scoreParts []string
	for _, token := range tokens {
		args = append(args, "%"+token+"%")
		arg := len(args)

		var fieldChecks []string
		var caseParts []string
		for _, f := range searchFields {
			fieldChecks = append(fieldChecks,
				fmt.Sprintf("LOWER(%s) LIKE $%d", f.column, arg))
			caseParts = append(caseParts,
				fmt.Sprintf("CASE WHEN LOWER(%s) LIKE $%d THEN %d ELSE 0 END", f.column, arg, f.weight))
		}
		where = append(where, "("+strings.Join(fieldChecks, " OR ")+")")
		scoreParts = append(scoreParts, caseParts...)
	}

	sql := fmt.Sprintf(
		"SELECT %s, (%s) AS relevance FROM saved_links WHERE %s ORDER BY relevance DESC, saved_at DESC",
		linkColumns,
		strings.Join(scoreParts, " + "),
		strings.Join(where, " AND "))
	return sql, args
}

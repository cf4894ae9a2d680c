package travel

import (
	"context"
	"fmt"
)

// PolicySnippet is one matching policy document.
type PolicySnippet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LookupPolicy searches the company policy documents via full-text search
// and returns the best-matching snippets.
func (s *Store) LookupPolicy(ctx context.Context, query string, limit int) ([]PolicySnippet, error) {
	if limit <= 0 {
		limit = 2
	}
	rows, err := s.sql.QueryContext(ctx, `
		SELECT p.title, p.content
		FROM policies_fts f
		JOIN policies p ON p.id = f.rowid
		WHERE policies_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching policies: %w", err)
	}
	defer rows.Close()

	var snippets []PolicySnippet
	for rows.Next() {
		var p PolicySnippet
		if err := rows.Scan(&p.Title, &p.Content); err != nil {
			return nil, err
		}
		snippets = append(snippets, p)
	}
	return snippets, rows.Err()
}

// ftsQuery turns free text into an OR query so partial matches still
// rank.
func ftsQuery(query string) string {
	terms := tokenize(query)
	if len(terms) == 0 {
		return `""`
	}
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " OR "
		}
		out += `"` + t + `"`
	}
	return out
}

func tokenize(s string) []string {
	var terms []string
	start := -1
	for i, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alnum {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			terms = append(terms, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		terms = append(terms, s[start:])
	}
	return terms
}

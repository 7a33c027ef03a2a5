package index

import (
	"context"
	"fmt"
	"strings"
)

// KeywordSearch is the no-embedding fallback: case-insensitive keyword
// matching over document content, newest first. Useful when no
// embedding engine is reachable or for exact-term lookups during
// audits.
func (ix *Index) KeywordSearch(ctx context.Context, query string, filter Filter, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	sqlQuery := fmt.Sprintf(`SELECT id, source_id, source_table, category, content,
		content_hash, embedding, metadata, created_at, updated_at
		FROM documents WHERE (%s)`, strings.Join(conditions, " OR "))
	if filter.SourceTable != "" {
		sqlQuery += " AND source_table = ?"
		args = append(args, filter.SourceTable)
	}
	if filter.Category != "" {
		sqlQuery += " AND category = ?"
		args = append(args, filter.Category)
	}
	sqlQuery += " ORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			continue
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}

// Package ingest moves platform records into the vector search index:
// fetch, map onto the taxonomy, apply privacy rules, embed, upsert.
// A record blocked by privacy rules never reaches the index.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaliLove/chat-langchain-sub001/internal/bubble"
	"github.com/BaliLove/chat-langchain-sub001/internal/embedding"
	"github.com/BaliLove/chat-langchain-sub001/internal/index"
	"github.com/BaliLove/chat-langchain-sub001/internal/privacy"
	"github.com/BaliLove/chat-langchain-sub001/internal/taxonomy"
)

// embedBatchSize bounds one embedding request.
const embedBatchSize = 32

// Source fetches records from the platform; satisfied by *bubble.Client.
type Source interface {
	FetchAll(ctx context.Context, table string) ([]bubble.Record, error)
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	source  Source
	mapper  *taxonomy.Mapper
	scanner *privacy.Scanner
	engine  embedding.Engine
	ix      *index.Index
	log     *zap.Logger
}

// New creates a pipeline. All dependencies are required except log.
func New(source Source, mapper *taxonomy.Mapper, scanner *privacy.Scanner,
	engine embedding.Engine, ix *index.Index, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		source:  source,
		mapper:  mapper,
		scanner: scanner,
		engine:  engine,
		ix:      ix,
		log:     log,
	}
}

// Result counts what happened to one table's records.
type Result struct {
	Table     string
	Fetched   int
	Blocked   int
	Redacted  int
	Warned    int
	Unchanged int
	Indexed   int
}

// pending is a record that passed privacy filtering and needs an
// embedding before it can be stored.
type pending struct {
	doc index.Document
}

// Run ingests one table end to end. Every run gets its own ID so log
// lines from overlapping invocations stay attributable.
func (p *Pipeline) Run(ctx context.Context, table string) (*Result, error) {
	log := p.log.With(zap.String("run_id", uuid.NewString()), zap.String("table", table))

	records, err := p.source.FetchAll(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}

	result := &Result{Table: table, Fetched: len(records)}
	var queue []pending

	for _, rec := range records {
		text := rec.PlainText()
		if text == "" {
			continue
		}

		category, kind := p.mapper.Map(rec.ID, text)

		decision, cleaned, findings := p.scanner.Apply(text)
		switch decision {
		case privacy.DecisionBlock:
			result.Blocked++
			log.Debug("record blocked",
				zap.String("id", rec.ID),
				zap.String("rule", blockRule(findings)))
			continue
		case privacy.DecisionRedact:
			result.Redacted++
		default:
			if len(findings) > 0 {
				result.Warned++
			}
		}

		doc := index.Document{
			SourceID:    table + "/" + rec.ID,
			SourceTable: table,
			Category:    string(category),
			Content:     cleaned,
			ContentHash: index.ContentHash(cleaned),
			Metadata: map[string]string{
				"record_id":  rec.ID,
				"match_kind": string(kind),
			},
		}

		same, err := p.ix.Unchanged(ctx, doc.SourceID, doc.ContentHash)
		if err != nil {
			return nil, err
		}
		if same {
			result.Unchanged++
			continue
		}
		queue = append(queue, pending{doc: doc})
	}

	if err := p.embedAndStore(ctx, queue, result); err != nil {
		return nil, err
	}

	log.Info("table ingested",
		zap.Int("fetched", result.Fetched),
		zap.Int("indexed", result.Indexed),
		zap.Int("blocked", result.Blocked),
		zap.Int("unchanged", result.Unchanged))
	return result, nil
}

// blockRule names the first block-severity finding. Findings are
// position-sorted, so the first entry may be a warn or redact hit.
func blockRule(findings []privacy.Finding) string {
	for _, f := range findings {
		if f.Severity == privacy.SeverityBlock {
			return f.Rule
		}
	}
	return ""
}

// embedAndStore embeds queued documents in batches and upserts them.
func (p *Pipeline) embedAndStore(ctx context.Context, queue []pending, result *Result) error {
	for start := 0; start < len(queue); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]

		texts := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = item.doc.Content
		}

		vectors, err := p.engine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("engine returned %d vectors for %d texts", len(vectors), len(batch))
		}

		for i, item := range batch {
			item.doc.Embedding = vectors[i]
			stored, err := p.ix.Upsert(ctx, item.doc)
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", item.doc.SourceID, err)
			}
			if stored {
				result.Indexed++
			} else {
				result.Unchanged++
			}
		}
	}
	return nil
}

// RunAll ingests tables sequentially, collecting per-table results.
// The first failing table aborts the run; completed results are
// returned alongside the error.
func (p *Pipeline) RunAll(ctx context.Context, tables []string) ([]*Result, error) {
	var results []*Result
	for _, table := range tables {
		res, err := p.Run(ctx, table)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

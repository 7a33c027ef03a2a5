package bubble

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTableCandidates is the probe list used by schema discovery
// when the config does not name tables explicitly. Bubble has no
// endpoint that enumerates tables, so discovery probes names the
// application is known or likely to use.
var DefaultTableCandidates = []string{
	"event",
	"eventreview",
	"issue",
	"comment",
	"message",
	"messagethread",
	"venue",
	"product",
	"booking",
	"trainingsession",
	"trainingrecord",
	"sop",
	"user",
	"team",
	"attendance",
}

// TableInfo describes one accessible table found by discovery.
type TableInfo struct {
	Name string
	// Total record estimate: page count plus reported remainder.
	RecordEstimate int
	// Field names observed in the sampled first page.
	SampleFields []string
}

// DiscoverTables probes candidate table names and returns those the
// token can read, sorted by name. Inaccessible and unknown tables are
// skipped silently; other errors abort discovery.
func (c *Client) DiscoverTables(ctx context.Context, candidates []string) ([]TableInfo, error) {
	if len(candidates) == 0 {
		candidates = DefaultTableCandidates
	}

	var (
		mu    sync.Mutex
		found []TableInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, name := range candidates {
		g.Go(func() error {
			page, err := c.List(gctx, name, 0)
			if err != nil {
				// Unknown table names surface as 400/404 from the
				// Data API; treat any non-retryable failure as "not
				// accessible" and keep probing the rest.
				c.log.Debug("table probe failed", zap.String("table", name), zap.Error(err))
				return nil
			}

			info := TableInfo{
				Name:           name,
				RecordEstimate: len(page.Records) + page.Remaining,
				SampleFields:   sampleFields(page.Records),
			}
			mu.Lock()
			found = append(found, info)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	c.log.Info("schema discovery finished",
		zap.Int("probed", len(candidates)),
		zap.Int("accessible", len(found)))
	return found, nil
}

// sampleFields unions the field names of sampled records.
func sampleFields(records []Record) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for _, name := range r.FieldNames() {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LooksLikeID reports whether a value has the shape of an opaque Bubble
// unique ID (epoch-millis, "x", random digits). Used by audits to spot
// unmapped references embedded in text fields.
func LooksLikeID(s string) bool {
	i := strings.IndexByte(s, 'x')
	if i < 12 || i > 14 || i == len(s)-1 {
		return false
	}
	for j, r := range s {
		if j == i {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/curate/internal/errors"
)

// DefaultReadConcurrency is used when Load is given a non-positive limit.
const DefaultReadConcurrency = 8

// Read decodes the manifest at path.
func Read(path string) (Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Raw{}, errors.NewInternal(fmt.Errorf("read manifest %s: %w", path, err))
	}

	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Raw{}, errors.NewMalformedManifest(path, err)
	}
	return raw, nil
}

// Load reads and normalizes every manifest in corpus. Reads run concurrently,
// bounded by limit, but the result keeps the corpus discovery order so that
// downstream output is byte-stable. The first failure cancels the batch.
func Load(ctx context.Context, corpus *Corpus, limit int) ([]Normalized, error) {
	if limit <= 0 {
		limit = DefaultReadConcurrency
	}

	entries := corpus.Manifests()
	out := make([]Normalized, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			raw, err := Read(entry.ManifestPath)
			if err != nil {
				return err
			}

			n := Normalize(raw, corpus.Root, entry.ManifestPath)
			n.Swift = entry.Swift
			if entry.ChangelogPath != "" {
				n.Updated = LatestChangelogDate(entry.ChangelogPath)
			}
			out[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

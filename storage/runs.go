// Package storage keeps analysis run history in NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semlint/report"
)

// DefaultBucket is the KV bucket holding run history.
const DefaultBucket = "SEMLINT_RUNS"

// RunStore persists analysis runs in a NATS KV bucket, keyed by run ID.
type RunStore struct {
	runs jetstream.KeyValue
}

// NewRunStore creates a store over the named bucket.
// It creates the bucket if it doesn't exist.
func NewRunStore(ctx context.Context, js jetstream.JetStream, bucket string) (*RunStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}

	return &RunStore{runs: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semlint analysis run history",
		History:     5, // Keep last 5 revisions
	})
}

// Save stores the run under its ID.
func (s *RunStore) Save(ctx context.Context, run *report.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no ID")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	if _, err := s.runs.Put(ctx, run.ID, data); err != nil {
		return fmt.Errorf("store run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*report.Run, error) {
	entry, err := s.runs.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	var run report.Run
	if err := json.Unmarshal(entry.Value(), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}

	return &run, nil
}

// List returns all stored runs, most recent first.
func (s *RunStore) List(ctx context.Context) ([]*report.Run, error) {
	keys, err := s.runs.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list run keys: %w", err)
	}

	runs := make([]*report.Run, 0, len(keys))
	for _, key := range keys {
		entry, err := s.runs.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var run report.Run
		if err := json.Unmarshal(entry.Value(), &run); err != nil {
			continue
		}
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}

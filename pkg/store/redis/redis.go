package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

const diagramsSet = "stunner:diagrams"

// DiagramStore keeps diagrams as JSON values, one key per diagram, with a
// set indexing the keys.
type DiagramStore struct {
	client *redis.Client
}

var _ store.DiagramService = (*DiagramStore)(nil)

func NewDiagramStore(client *redis.Client) *DiagramStore {
	return &DiagramStore{client: client}
}

func (s *DiagramStore) makeKey(id string) string {
	return fmt.Sprintf("stunner:diagram:%s", id)
}

func (s *DiagramStore) SaveDiagram(ctx context.Context, d *graph.Diagram) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal diagram %s: %w", d.ID, err)
	}
	key := s.makeKey(d.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, diagramsSet, d.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save diagram %s: %w", d.ID, err)
	}
	return nil
}

func (s *DiagramStore) LoadDiagram(ctx context.Context, id string) (*graph.Diagram, error) {
	data, err := s.client.Get(ctx, s.makeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", store.ErrDiagramNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET diagram %s: %w", id, err)
	}
	return decode(id, data)
}

func (s *DiagramStore) ListDiagrams(ctx context.Context) ([]store.DiagramSummary, error) {
	ids, err := s.client.SMembers(ctx, diagramsSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to SMEMBERS %s: %w", diagramsSet, err)
	}
	if len(ids) == 0 {
		return []store.DiagramSummary{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.makeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET diagrams: %w", err)
	}

	out := make([]store.DiagramSummary, 0, len(values))
	for i, val := range values {
		// The set can outlive a key deleted by hand.
		str, ok := val.(string)
		if !ok {
			continue
		}
		d, err := decode(ids[i], []byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, store.Summarize(d))
	}
	return out, nil
}

func (s *DiagramStore) DeleteDiagram(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.makeKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to DEL diagram %s: %w", id, err)
	}
	if err := s.client.SRem(ctx, diagramsSet, id).Err(); err != nil {
		return fmt.Errorf("failed to SREM diagram %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrDiagramNotFound, id)
	}
	return nil
}

func decode(id string, data []byte) (*graph.Diagram, error) {
	var d graph.Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diagram %s: %w", id, err)
	}
	if d.Graph == nil {
		d.Graph = graph.NewGraph()
	}
	return &d, nil
}

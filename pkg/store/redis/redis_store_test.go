package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

// RunDiagramServiceTests runs the DiagramService contract against an implementation.
func RunDiagramServiceTests(t *testing.T, svc store.DiagramService) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		d := graph.NewDiagram("invoice")
		n := graph.NewNode(graph.NodeEvent, "start", graph.Bounds{W: 3, H: 3})
		n.ParentID = d.RootID
		if err := d.Graph.AddNode(n); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}

		if err := svc.SaveDiagram(ctx, d); err != nil {
			t.Fatalf("SaveDiagram failed: %v", err)
		}
		loaded, err := svc.LoadDiagram(ctx, d.ID)
		if err != nil {
			t.Fatalf("LoadDiagram failed: %v", err)
		}
		if loaded.Name != d.Name || !loaded.Graph.Equal(d.Graph) {
			t.Errorf("loaded diagram differs: got %+v", loaded)
		}
	})

	t.Run("Load non-existent", func(t *testing.T) {
		_, err := svc.LoadDiagram(ctx, "non-existent")
		if !errors.Is(err, store.ErrDiagramNotFound) {
			t.Errorf("expected ErrDiagramNotFound, got %v", err)
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		a := graph.NewDiagram("a")
		b := graph.NewDiagram("b")
		for _, d := range []*graph.Diagram{a, b} {
			if err := svc.SaveDiagram(ctx, d); err != nil {
				t.Fatalf("SaveDiagram failed: %v", err)
			}
		}

		list, err := svc.ListDiagrams(ctx)
		if err != nil {
			t.Fatalf("ListDiagrams failed: %v", err)
		}
		found := map[string]bool{}
		for i, sum := range list {
			found[sum.ID] = true
			if i > 0 && list[i-1].ID > sum.ID {
				t.Errorf("summaries not ordered by id")
			}
		}
		if !found[a.ID] || !found[b.ID] {
			t.Errorf("expected both diagrams listed, got %+v", list)
		}

		if err := svc.DeleteDiagram(ctx, a.ID); err != nil {
			t.Fatalf("DeleteDiagram failed: %v", err)
		}
		if err := svc.DeleteDiagram(ctx, a.ID); !errors.Is(err, store.ErrDiagramNotFound) {
			t.Errorf("expected ErrDiagramNotFound on second delete, got %v", err)
		}
		if _, err := svc.LoadDiagram(ctx, a.ID); !errors.Is(err, store.ErrDiagramNotFound) {
			t.Errorf("expected deleted diagram to be gone, got %v", err)
		}
	})
}

func TestDiagramStore(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	RunDiagramServiceTests(t, NewDiagramStore(client))
}

func TestDiagramStore_ListSkipsDanglingIndex(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	ctx := context.Background()

	ds := NewDiagramStore(client)
	d := graph.NewDiagram("dangling")
	if err := ds.SaveDiagram(ctx, d); err != nil {
		t.Fatalf("SaveDiagram failed: %v", err)
	}
	s.Del(ds.makeKey(d.ID))

	list, err := ds.ListDiagrams(ctx)
	if err != nil {
		t.Fatalf("ListDiagrams failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no summaries, got %+v", list)
	}
}

package reference

import "testing"

func TestChunkPartitionsAllIds(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	parts := chunk(ids, 2)

	if len(parts) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(parts))
	}

	var flattened []string
	for _, p := range parts {
		flattened = append(flattened, p...)
	}
	if len(flattened) != len(ids) {
		t.Fatalf("expected %d ids after flattening, got %d", len(ids), len(flattened))
	}
	for i, id := range ids {
		if flattened[i] != id {
			t.Fatalf("chunk union not order-preserving at index %d: want %s got %s", i, id, flattened[i])
		}
	}
}

func TestChunkSmallerThanSizeIsOneChunk(t *testing.T) {
	ids := []string{"a", "b"}
	parts := chunk(ids, 500)
	if len(parts) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(parts))
	}
	if len(parts[0]) != 2 {
		t.Fatalf("expected chunk of size 2, got %d", len(parts[0]))
	}
}

func TestChunkZeroSizeIsUnchunked(t *testing.T) {
	ids := []string{"a", "b", "c"}
	parts := chunk(ids, 0)
	if len(parts) != 1 || len(parts[0]) != 3 {
		t.Fatalf("expected single unchunked group, got %v", parts)
	}
}

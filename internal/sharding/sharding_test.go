package sharding

import (
	"fmt"
	"testing"
)

func TestGetShardID_Deterministic(t *testing.T) {
	first := GetShardID("user-42")
	for i := 0; i < 100; i++ {
		if got := GetShardID("user-42"); got != first {
			t.Fatalf("shard ID not deterministic: got %d want %d", got, first)
		}
	}
}

func TestGetShardID_WithinRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		owner := fmt.Sprintf("user-%d", i)
		shard := GetShardID(owner)
		if shard < 0 || shard >= ShardCount {
			t.Fatalf("shard ID out of range for %q: %d", owner, shard)
		}
	}
}

func TestGetSubject_Format(t *testing.T) {
	want := fmt.Sprintf("todo.event.%d.user.user-1", GetShardID("user-1"))
	if got := GetSubject("user-1"); got != want {
		t.Fatalf("subject mismatch: got %q want %q", got, want)
	}
}

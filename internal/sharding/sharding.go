package sharding

import (
	"fmt"
	"hash/crc32"
)

// ShardCount is the fixed number of change-feed partitions.
const ShardCount = 256

// GetShardID calculates the deterministic shard ID for an owner ID.
func GetShardID(ownerID string) int {
	checksum := crc32.ChecksumIEEE([]byte(ownerID))
	return int(checksum % ShardCount)
}

// GetSubject returns the change-feed subject for an owner.
// Format: todo.event.{shard_id}.user.{owner_id}
func GetSubject(ownerID string) string {
	return fmt.Sprintf("todo.event.%d.user.%s", GetShardID(ownerID), ownerID)
}

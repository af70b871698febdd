package v1

import (
	"encoding/json"
	"time"
)

// CurrentSchemaVersion is stamped on every envelope a producer emits.
// Bump only with a compatible consumer rollout.
const CurrentSchemaVersion = 1

// PartitionKeyPathTenant is the partition key path for tenant-keyed topics.
// All governance topics partition by tenant so per-tenant ordering holds.
const PartitionKeyPathTenant = "tenant_id"

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is generated-contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

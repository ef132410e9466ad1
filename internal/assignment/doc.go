// Package assignment publishes computed slot assignments to NATS JetStream KV.
//
// A planner computes a SlotAssignment for a scan and publishes it so that the
// workers running each slot can fetch their sub-scans. Every publication of a
// plan carries a new version; versions only increase, including across
// planner restarts, because a new Publisher discovers the highest stored
// version before publishing.
//
// # Key Layout
//
// Each slot is stored under its own key:
//
//	Key: "{prefix}.{planKey}.{slot}"  (e.g., "assignment.9f3c2a1b00d4e8f7.0")
//	Value: JSON-encoded SlotRecord
//
// SlotRecord JSON structure:
//
//	{
//	  "version": 42,
//	  "planKey": "9f3c2a1b00d4e8f7",
//	  "slot": 0,
//	  "slotCount": 3,
//	  "subScans": [
//	    {"table": "orders", "partitionId": "r1", "server": "host-1", ...}
//	  ]
//	}
//
// When a plan is republished with fewer slots, the keys of the removed slots
// are deleted so that no worker reads a stale slot.
//
// # Thread Safety
//
// Publisher is safe for concurrent use.
package assignment

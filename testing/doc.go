// Package testing provides test utilities for the scanplan library.
//
// The KV-backed sources and the assignment publisher need a JetStream server.
// This package starts one in-process, following Go's convention of shipping
// test helpers in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: In-memory KV bucket for seeding and inspection
//
// Example usage:
//
//	import (
//	    "testing"
//	    scanplantest "github.com/arloliu/scanplan/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := scanplantest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing

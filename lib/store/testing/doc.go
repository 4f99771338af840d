// Package testing provides a conformance test suite for store.IStore implementations.
// Every store (local, distributed, postgres, rpc) must pass RunStoreTests.
package testing

// Package testing provides a reusable conformance suite for db.RowDB
// implementations. Engines call RunRowDBTests from their own tests:
//
//	func Test(t *testing.T) {
//		dbtesting.RunRowDBTests(t, "MemDB", func() db.RowDB {
//			return memdb.NewMemDB()
//		})
//	}
//
// Tests for features an engine does not advertise are skipped.
package testing

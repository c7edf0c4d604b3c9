// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests obtain a migrated database with GetTestDBWithT, which skips the test
// when no database URL is configured, and isolate their writes with WithTx:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tasks := postgres.NewPostgresTaskStore(tx, logger)
//	        // ...
//	    })
//	}
//
// Every change made through tx is rolled back when the function returns.
package testdb

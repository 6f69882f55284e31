// Package orm is a thin record layer over sqlx.
//
// [DB] holds one writer and any number of read replicas. Reads rotate over
// the replicas and fall back to the writer when none are configured. Pools
// created by the db package are bridged with [Open]:
//
//	orm.Open(writePools, readPools)
//
// [Table] maps a struct type with `db` tags to a table and implements the
// lookups session-bound models need:
//
//	type User struct {
//	    ID       string `db:"id"`
//	    Email    string `db:"email"`
//	    Password string `db:"password"`
//	}
//
//	users := orm.NewTable[User](database, "users")
//	u, err := users.FindByID(ctx, id) // ErrNoRecord when absent
//
// [Inspect] reads column metadata from information_schema so callers can
// check a column's type and declared length before writing to it.
package orm

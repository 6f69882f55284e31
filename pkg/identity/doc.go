// Package identity binds persisted records to the request session.
//
// [Current] keeps the key of one record per collection in the session and
// loads it back on demand. [Auth] builds login, logout and write-only
// password handling on top of it. Records are usually pointers, so the
// repository is a small adapter over an orm.Table that returns *User:
//
//	auth := identity.NewAuth[*User](users, hasher)
//
//	if err := auth.Login(c, user); err != nil {
//		return err
//	}
//	me, err := auth.Me(c.Context(), c)
//
// A session that points at a deleted record is cleaned up on the next lookup.
// Before a password is hashed or checked, the password column is inspected
// once to make sure it can hold a full envelope.
package identity

// Package pathutil joins filesystem path segments.
//
// [Join] differs from [path/filepath.Join] in two ways: it accepts nested
// slices, which are flattened into the segment list, and it keeps the leading
// separator of the first segment and the trailing separator of the last one.
// It does not clean "." or ".." elements.
//
//	pathutil.Join("a", "b/", "/c")                   // "a/b/c"
//	pathutil.Join("/var/", []string{"/log", "app/"}) // "/var/log/app/"
package pathutil

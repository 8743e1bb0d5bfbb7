// Package cdefs assembles the interface-definition fragments of the native
// module into the two blobs the compiler consumes: the declarations (WIT
// text describing exported signatures and named types) and the
// implementation (WAT source).
//
// The fragment lists are fixed and ordered; Assemble concatenates them
// deterministically and fails with a resource-not-found error naming the
// first missing fragment. The resulting Bundle is assembled fresh on every
// cold load attempt and is never cached; only the loaded module is.
package cdefs

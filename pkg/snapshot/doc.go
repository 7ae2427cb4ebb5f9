// Package snapshot saves named versions of a consolidated graph and compares
// them.
//
// A [Version] freezes a graph together with a name, an optional description,
// and a content hash. Versions live in a [Store]:
//
//   - [FileStore]: one JSON document per version in a directory (CLI default)
//   - [RedisStore]: JSON documents plus a creation-time index in Redis
//   - [MongoStore]: one BSON document per version in a MongoDB collection
//
// [Compute] diffs two graphs by node ID and ordered edge pair. The resulting
// [Diff] can be turned back into a graph with [Diff.Graph], where every node
// and edge carries a status, so the same layout and render pipeline draws
// a comparison.
package snapshot

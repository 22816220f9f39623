// Package cms is the object store the application keeps its contacts,
// templates and campaigns in.
//
// Every record is an Object: a typed envelope (id, slug, title, type, status,
// timestamps) around a free-form metadata map. Stores are addressed through
// the Store interface and come in three flavours:
//
//   - Cosmic: the hosted headless CMS, spoken to over its REST API. The same
//     client exposes media upload and AI text generation.
//   - Mongo: a self-hosted collection with the same query semantics.
//   - Memory: a process-local map used by tests and local development.
//
// Cached wraps any Store with a Redis read cache that is invalidated per
// object type on every write.
//
// Queries filter on dotted metadata paths. A select-dropdown value stored as
// {"key": ..., "value": ...} matches on its key, and an array field matches
// when it contains the filter value:
//
//	objs, total, err := store.Find(ctx, cms.Query{
//		Type:   "contacts",
//		Filter: map[string]any{"metadata.subscription_status": "subscribed"},
//	})
package cms

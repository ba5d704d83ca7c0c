/*
Package ports defines the driven ports (interfaces) for the formtree engine.

These interfaces decouple the editor core from external implementations, allowing
it to work with various control catalogs and form storage backends.

# Key Interfaces

  - Catalog: Resolves (controlId, groupId) pairs to control definitions (e.g., from Loam or the built-in palette).
  - FormStore: Persists and loads form documents.
  - DistributedLocker: Provides distributed locking for concurrent edits of the same form.
*/
package ports

/*
Package observability exports editor activity as Prometheus metrics.

Metrics.Hooks returns a domain.LifecycleHooks set that counts structural
operations, rejections and migrations and tracks the node count of every form.
Compose it with the host's own hooks through domain.ComposeHooks or pass it
with formtree.WithLifecycleHooks.
*/
package observability

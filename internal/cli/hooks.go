package cli

import (
	"log/slog"

	"github.com/aretw0/formtree/pkg/domain"
)

// DebugHooks logs every editor notification at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMount: func(e domain.MountEvent) {
			logger.Debug("Mount", "node_id", e.NodeID, "control_id", e.ControlID, "parent_id", e.ParentID, "index", e.Index, "moved", e.Moved)
		},
		OnUnmount: func(e domain.UnmountEvent) {
			logger.Debug("Unmount", "node_id", e.NodeID, "control_id", e.ControlID)
		},
		OnTreeChanged: func(e domain.TreeChangedEvent) {
			logger.Debug("Tree changed", "op", e.Op, "nodes", e.Nodes)
		},
		OnMigrated: func(e domain.MigrationEvent) {
			logger.Debug("Migrated", "control_id", e.ControlID, "rules", e.Rules)
		},
		OnRejected: func(e domain.RejectedEvent) {
			logger.Debug("Rejected", "op", e.Op, "err", e.Err)
		},
	}
}

package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestComposeHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnMount: func(e domain.MountEvent) { calls = append(calls, "a:"+e.NodeID) },
		OnDirty: func() { calls = append(calls, "a:dirty") },
	}
	b := domain.LifecycleHooks{
		OnMount:   func(e domain.MountEvent) { calls = append(calls, "b:"+e.NodeID) },
		OnUnmount: func(e domain.UnmountEvent) { calls = append(calls, "b:un") },
		OnDirty:   func() { calls = append(calls, "b:dirty") },
	}

	h := domain.ComposeHooks(a, domain.LifecycleHooks{}, b)
	h.OnMount(domain.MountEvent{NodeID: "n1"})
	h.OnUnmount(domain.UnmountEvent{NodeID: "n1"})
	h.OnDirty()

	assert.Equal(t, []string{"a:n1", "b:n1", "b:un", "a:dirty", "b:dirty"}, calls)
	assert.Nil(t, h.OnTreeChanged)
}

func TestErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{&domain.ParentNotFoundError{ParentID: "p"}, domain.ErrParentNotFound},
		{&domain.NodeNotFoundError{NodeID: "n"}, domain.ErrNodeNotFound},
		{&domain.InvalidTargetError{NodeID: "a", TargetID: "b"}, domain.ErrInvalidTarget},
		{&domain.UnknownControlTypeError{ControlID: "x"}, domain.ErrUnknownControlType},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("op failed: %w", tt.err)
		assert.ErrorIs(t, wrapped, tt.sentinel)
	}

	var target *domain.InvalidTargetError
	err := fmt.Errorf("move: %w", &domain.InvalidTargetError{NodeID: "a", TargetID: "a"})
	assert.True(t, errors.As(err, &target))
	assert.Contains(t, target.Error(), "into itself")
}

func TestDropEvent_Validate(t *testing.T) {
	assert.NoError(t, domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "button"}.Validate())
	assert.ErrorIs(t, domain.DropEvent{SourceKind: "mouse", ItemID: "x"}.Validate(), domain.ErrInvalidDrop)
	assert.ErrorIs(t, domain.DropEvent{SourceKind: domain.SourceCanvas}.Validate(), domain.ErrInvalidDrop)
}

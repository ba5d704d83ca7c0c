package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
)

// CatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.Catalog.
// expected maps controlId to groupId for every definition the catalog must hold.
func CatalogContractTest(t *testing.T, catalog ports.Catalog, expected map[string]string) {
	t.Helper()

	t.Run("GetDefinition_Success", func(t *testing.T) {
		for controlID, groupID := range expected {
			def, err := catalog.GetDefinition(controlID, groupID)
			if err != nil {
				t.Fatalf("unexpected error getting %s/%s: %v", groupID, controlID, err)
			}
			if def.ControlID != controlID || def.GroupID != groupID {
				t.Errorf("got definition %s/%s, want %s/%s", def.GroupID, def.ControlID, groupID, controlID)
			}
			if def.IsContainer && def.Properties.Len() > 0 {
				t.Errorf("container %s must not carry properties", controlID)
			}
		}
	})

	t.Run("GetDefinition_NotFound", func(t *testing.T) {
		_, err := catalog.GetDefinition("non-existent-control", "basic")
		if !errors.Is(err, domain.ErrUnknownControlType) {
			t.Errorf("expected ErrUnknownControlType, got %v", err)
		}
	})

	t.Run("GetDefinition_ReturnsCopies", func(t *testing.T) {
		for controlID, groupID := range expected {
			def, _ := catalog.GetDefinition(controlID, groupID)
			names := def.Properties.Names()
			if len(names) == 0 {
				continue
			}
			def.Properties.Set(domain.Property{Name: names[0], Value: domain.Text("mutated")})
			again, _ := catalog.GetDefinition(controlID, groupID)
			if p, _ := again.Properties.Get(names[0]); p.Value == domain.Text("mutated") {
				t.Errorf("mutating a returned definition of %s leaked into the catalog", controlID)
			}
		}
	})

	t.Run("List", func(t *testing.T) {
		defs := catalog.List()
		if len(defs) != len(expected) {
			t.Errorf("expected %d definitions, got %d", len(expected), len(defs))
		}

		lookup := make(map[string]bool)
		for _, d := range defs {
			lookup[d.ControlID] = true
		}
		for id := range expected {
			if !lookup[id] {
				t.Errorf("control %s missing from list", id)
			}
		}
	})
}

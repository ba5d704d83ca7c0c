/*
Package formtree is the model tree engine of a visual form designer.

An Editor keeps an arbitrarily nested tree of control nodes consistent with three
views of the same form: the visual tree drawn by a host (driven through mount and
unmount hooks), the property panel of the selected control, and the JSON document
the form is stored as.

# Concept

Controls come from a Catalog. Leaves (text fields, checkboxes, dropdowns...) carry
typed properties; containers (vbox, hbox) carry ordered children. Every node gets a
runtime id when it is created and keeps it until it is removed. Ids are never written
to the document: loading a form always mints fresh ones.

The tree only changes through a few primitives (insert, move, remove, clear, load),
each of which validates its input before touching anything and emits exactly one
tree-changed notification. Drag and drop gestures map onto them through Drop.

# Usage

	ed, err := formtree.New("", formtree.WithLifecycleHooks(domain.LifecycleHooks{
		OnMount: func(ev domain.MountEvent) { view.Mount(ev) },
	}))
	if err != nil {
		log.Fatal(err)
	}

	box, _ := ed.InsertFromCatalog("vbox", "layout", domain.Root, 0)
	field, _ := ed.InsertFromCatalog("textfield", "basic", box, 0)
	_ = ed.SetProperty(field, "label", "Email")

	data, _ := ed.Encode()

Older documents are upgraded while loading (for example a stored "title" becomes
"label"); the LoadReport lists the applied rules, and a migrated form starts dirty
so the host offers to save it.

# Persistence

The engine itself performs no I/O. pkg/session opens and saves editors through a
ports.FormStore; memory, file and redis stores are provided.
*/
package formtree

/*
Package domain contains the core domain models of the formtree engine.

It defines the entities of a form definition: control nodes arranged in a tree,
their typed property bags, the catalog definitions they are built from and the
persisted document shape. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A leaf control (button, text field, header...) or a layout container.
  - PropertyBag: Ordered, typed properties of a leaf node, with conditional visibility.
  - ControlDefinition: A catalog entry describing how to build a node.
  - Document: The persisted form document ({feeds, scripts, code, form}).
  - DropEvent: What a drag/drop gesture recognizer reports after a drop settles.
*/
package domain

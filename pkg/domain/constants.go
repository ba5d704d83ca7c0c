package domain

// Field names of the persisted node shape.
const (
	KeyControlID = "controlId"
	KeyGroupID   = "groupId"
	KeyChildren  = "children"
)

// Root designates the root sequence when used as a parent id.
const Root = ""

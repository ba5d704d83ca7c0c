// Package catalog builds control definitions from declarative specs and
// indexes them for lookup. It also ships the default palette, embedded from
// controls.yaml.
//
// A spec looks like:
//
//	controlId: textfield
//	groupId: basic
//	label: Text Field
//	properties:
//	  - name: label
//	    type: text
//	    default: Text Field
//	  - name: errorMessage
//	    type: text
//	    enabledOn: {key: required, value: true}
package catalog

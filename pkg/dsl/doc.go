/*
Package dsl provides a Go DSL for building form documents programmatically.

It is the fluent alternative to hand-writing the JSON of a form, useful for
seeding stores, generating forms and unit testing.

Example usage:

	b := dsl.New()

	b.Add("header", "basic").Set("label", "Contact us")

	row := b.Container("hbox", "layout")
	row.Add("textfield", "basic").Set("label", "Name").Set("required", true)
	row.Add("textfield", "basic").Set("label", "Email")

	b.Add("button", "basic").Set("label", "Send")

	doc, err := b.Build()

The resulting domain.Document can be passed to Editor.Deserialize or saved
through a ports.FormStore. BuildFor additionally checks every control against
a catalog.
*/
package dsl

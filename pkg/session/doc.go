/*
Package session keeps the open editors of a server.

A Manager loads forms from a ports.FormStore into formtree editors, serializes
access to each editor with a reference-counted mutex (plus an optional
distributed lock shared by several replicas), and writes them back on Save.
*/
package session

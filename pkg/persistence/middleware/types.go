// Package middleware decorates form stores with cross-cutting behavior.
package middleware

import "github.com/aretw0/formtree/pkg/ports"

// Middleware allows wrapping a FormStore to add behavior.
type Middleware func(ports.FormStore) ports.FormStore

// Chain applies mws so that the first one is the outermost.
func Chain(store ports.FormStore, mws ...Middleware) ports.FormStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

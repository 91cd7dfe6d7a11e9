// Package host defines the boundary between the rewards engine and the
// process embedding it.
//
// The engine never performs I/O itself. It asks the host to load or save a
// blob, fetch a URL, or arm a timer, and the host answers later by invoking
// the supplied callback. Hosts must deliver every callback on the engine's
// single execution context (see engine.Loop); the engine holds no locks and
// relies on that guarantee for all of its state.
//
// Completions may arrive in any order. A callback that arrives after the
// engine has moved on is checked against current state and dropped.
package host

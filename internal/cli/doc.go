// Package cli implements the rewards command line.
//
// Every command except scenario opens the configured data directory,
// wires a localhost.Host to an engine sharing one event loop, and runs
// that loop for the lifetime of the command. One-shot commands post their
// engine call onto the loop and wait for the matching host notification.
package cli

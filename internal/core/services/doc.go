// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The transform engine and edit history are pure; the crop service and
// search index reach the outside world only through driven ports.
package services

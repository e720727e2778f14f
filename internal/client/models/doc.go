// Package models defines the domain records the captain client exchanges
// with the backend. They are plain values: status fields mirror the last
// state reported by the server, which alone enforces valid transitions.
package models

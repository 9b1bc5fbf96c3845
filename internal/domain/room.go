// Package domain contains entity without logic, just meta-data
package domain

// RoomName identifies a room. Externally supplied, never validated;
// a room exists exactly as long as it has at least one member.
type RoomName string

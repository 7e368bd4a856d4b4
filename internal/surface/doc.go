// Package surface holds the display surface that poll results are written to.
//
// This package is internal to SensorBoard. A surface is a set of named content
// slots, each addressed by the id of the page element that renders it (the
// default slot is "readings"). The poller only writes; the HTTP server reads
// snapshots and subscribes for live updates.
//
// The main components are:
//
//   - [Surface]: Interface defining write, read and subscription operations
//   - [MemorySurface]: In-memory implementation of Surface with pub/sub
//   - [Content]: The latest body written to one element
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers miss updates rather than block the poller).
package surface

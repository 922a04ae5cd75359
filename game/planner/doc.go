// Package planner holds the search-based steering used by the autopilot.
//
// FirstMove runs a breadth-first search over safe cells and returns only
// the first heading of a shortest path. Autopilot layers a fixed fallback
// chain on top of it: path to food, retreat to a far wall when food spawned
// under the body, any safe neighbour, and finally the current heading.
package planner

// Package pilot turns a tick request into a heading.
//
// Keyboard requests are resolved against the current heading so a 180°
// turn is ignored. The autopilot policy asks the BFS planner; a key sent
// along turns the snake first, so the planner starts from that heading. The
// classifier policy starts from the autopilot's move and lets a trained
// classifier override it when its label is a usable, non-reversing heading.
package pilot

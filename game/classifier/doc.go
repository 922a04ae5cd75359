// Package classifier connects trained direction classifiers to the game.
//
// A classifier sees one feature row per tick (head and food coordinates,
// body length, deltas, Euclidean distance and the current heading) and
// answers with a direction label. Oracle is the contract; HTTPOracle talks
// to a model server and ONNXOracle runs an exported model in process.
// ParseLabel rejects anything that is not one of the four headings so the
// caller can keep its previous decision.
package classifier

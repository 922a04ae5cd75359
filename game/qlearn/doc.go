// Package qlearn trains a tabular Q-learning agent against the rlenv
// environment. The table has one row per 11-bit observation and one column
// per action code, and can be saved to and loaded from JSON.
package qlearn

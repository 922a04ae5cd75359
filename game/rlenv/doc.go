// Package rlenv wraps the snake grid as a reinforcement-learning
// environment: four action codes, an 11-bit observation and shaped rewards.
package rlenv

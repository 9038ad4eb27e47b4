// Package events provides types and interfaces for publishing analysis
// lifecycle events.
//
// Services emit events without knowing which handlers will process them. The
// primary components are:
// - AnalysisEvent: a state change of one analysis task
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
// - StatsRecorder: a handler that keeps outcome counters
package events

// Package events defines the scheduling run events emitted on the event bus.
//
// Available event types:
//   - RunCompleted: a schedule was produced
//   - RunFailed: the pipeline stopped before producing a schedule
package events

// Package launcher owns admission control for a task run. It registers
// assignments from a data source into a pending set, promotes pending units
// into an active set up to the run's concurrency cap, reconciles the active
// set against stored unit statuses, and opens admitted units for workers.
// Teardown force-expires every unit ever created.
package launcher

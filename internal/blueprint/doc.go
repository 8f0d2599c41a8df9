// Package blueprint defines the composition contract for task types: the
// data source that materializes assignments, the task-specific run/cleanup
// logic in its unit-level or assignment-level shape, and the registry that
// resolves a task type key to its blueprint.
package blueprint

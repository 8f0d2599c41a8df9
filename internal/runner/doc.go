// Package runner provides the execution driver. It runs task-specific logic
// for units, assignments, and onboarding agents on behalf of the admission
// controller, classifies worker faults against the recognized set, and
// guarantees cleanup and deregistration on every exit path. Nothing raised
// inside task logic propagates past this package.
package runner

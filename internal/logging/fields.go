package logging

// Standardized attribute keys shared across the pipeline.
const (
	// FieldComponent identifies the emitting subsystem.
	FieldComponent = "component"
	// FieldEventType labels warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRequestID carries the per-request correlation id.
	FieldRequestID = "request_id"
	// FieldState carries the pipeline state during a transition.
	FieldState = "state"
)

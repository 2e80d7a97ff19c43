package fulfill

import "fmt"

// Integration stages, in invocation order.
const (
	StageCMS = "CMS"
	StageWMS = "WMS"
	StageROS = "ROS"
)

// IntegrationError is a failed external-system step. Retryable up to the
// attempt cap; the stage tag identifies which adapter failed.
type IntegrationError struct {
	Stage   string
	Message string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s integration failed: %s", e.Stage, e.Message)
}

// PreconditionError is a missing prerequisite for a step, e.g. WMS
// produced no tracking number so ROS cannot be called. Retryable, since
// under concurrent writers a previous step's data may not be committed
// yet.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

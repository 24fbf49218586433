package service

import "fmt"

// Stage is a step of the query path. A query moves strictly forward through
// Idle, Retrieving, Assembling, Generating and ends in Done or Failed.
type Stage int

const (
	StageIdle Stage = iota
	StageRetrieving
	StageAssembling
	StageGenerating
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRetrieving:
		return "retrieving"
	case StageAssembling:
		return "assembling"
	case StageGenerating:
		return "generating"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// QueryError reports the stage a query failed in.
type QueryError struct {
	Stage Stage
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed while %s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"errors"
	"fmt"
)

// Code classifies tutor failures for logging, metrics, and the HTTP boundary.
type Code string

const (
	// CodeRetrieval covers failed or empty passage retrieval.
	CodeRetrieval Code = "RetrievalError"
	// CodeGeneration covers LLM call failures (timeout, quota, transport).
	CodeGeneration Code = "GenerationError"
	// CodeParse covers completions missing the expected markers.
	CodeParse Code = "ParseError"
	// CodeStaleSubmission marks an answer submitted for a question that is
	// no longer current.
	CodeStaleSubmission Code = "StaleSubmission"
	// CodeSessionClosed marks use of a handle invalidated by a bulk clear.
	CodeSessionClosed Code = "SessionClosed"
)

// Error is the session-layer error type. Op names the failing operation for
// log context; Err may be nil for pure policy rejections.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the session error code, or "" for foreign errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names one step of the generation pipeline.
type Stage string

const (
	StageValidation         Stage = "validation"
	StagePromptGeneration   Stage = "prompt_generation"
	StageLLMResponse        Stage = "llm_response"
	StageDocumentGeneration Stage = "document_generation"
	StageComplete           Stage = "complete"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageValidation,
	StagePromptGeneration,
	StageLLMResponse,
	StageDocumentGeneration,
	StageComplete,
}

// EventStatus is the sub-status of a stage event.
type EventStatus string

const (
	StatusStarted   EventStatus = "started"
	StatusCompleted EventStatus = "completed"
	StatusError     EventStatus = "error"
	StatusSuccess   EventStatus = "success"
)

// Event is one progress record emitted by the pipeline. Consumers can render
// events incrementally without waiting for the final result.
type Event struct {
	RequestID string         `json:"request_id"`
	Stage     Stage          `json:"stage"`
	Status    EventStatus    `json:"status"`
	Data      map[string]any `json:"data"`
	Time      time.Time      `json:"time"`
}

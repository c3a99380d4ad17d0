package models

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnStatus is the lifecycle state of a chat turn. A turn moves from
// pending to done or error and never back.
type TurnStatus string

const (
	TurnPending TurnStatus = "pending"
	TurnDone    TurnStatus = "done"
	TurnError   TurnStatus = "error"
)

// ChatTurn is one message of the chat transcript.
type ChatTurn struct {
	ID              string
	Role            Role
	RawText         string
	FormattedMarkup string
	Status          TurnStatus
}

// QueryRequest is the body sent to /query.
type QueryRequest struct {
	Question  string `json:"question"`
	HoursBack int    `json:"hours_back"`
	SessionID string `json:"session_id,omitempty"`
}

// Answer is a successful /query response.
type Answer struct {
	Text       string
	Provider   string
	ChunksUsed int
	Sources    []string
	HasSources bool
}

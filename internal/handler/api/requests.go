package api

// AskRequest is the body of POST /ask. An empty question is accepted here
// and ignored by the chat controller.
type AskRequest struct {
	Question string `json:"question" validate:"max=2000"`
}

// RefreshResult reports whether an explicit refresh started a fetch.
type RefreshResult struct {
	Panel      string `json:"panel"`
	Dispatched bool   `json:"dispatched"`
}

// TabResult is the tab shown after activation.
type TabResult struct {
	Active string `json:"active"`
}

// AskResult is returned for an accepted question.
type AskResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

package leankit

import "encoding/json"

// ActivityLayout is the layout of Card.LastActivity.
const ActivityLayout = "01/02/2006 03:04:05 PM"

// Envelope is the decoded top-level body of every LeanKit reply.
// ReplyData is only meaningful when ReplyCode.IsSuccess().
type Envelope struct {
	ReplyCode ReplyCode       `json:"ReplyCode"`
	ReplyText string          `json:"ReplyText"`
	ReplyData json.RawMessage `json:"ReplyData"`
}

// SearchParams is the body of a card search request.
type SearchParams struct {
	AssignedUserIds       []int64 `json:"AssignedUserIds"`
	SearchInRecentArchive bool    `json:"SearchInRecentArchive"`
	SearchInOldArchive    bool    `json:"SearchInOldArchive"`
	SearchInBoard         bool    `json:"SearchInBoard"`
	Page                  int     `json:"Page"`
}

// SearchResult is one page of card search results.
type SearchResult struct {
	TotalResults int    `json:"TotalResults"`
	Results      []Card `json:"Results"`
}

// Card is a single card search result.
type Card struct {
	ID             int64  `json:"Id"`
	Title          string `json:"Title"`
	LastActivity   string `json:"LastActivity"`
	BoardID        int64  `json:"BoardId,omitempty"`
	BoardTitle     string `json:"BoardTitle,omitempty"`
	LaneTitle      string `json:"LaneTitle,omitempty"`
	TypeName       string `json:"TypeName,omitempty"`
	Priority       int    `json:"Priority,omitempty"`
	Size           int    `json:"Size,omitempty"`
	ExternalCardID string `json:"ExternalCardID,omitempty"`
	DueDate        string `json:"DueDate,omitempty"`
}

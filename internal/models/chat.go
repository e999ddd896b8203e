package models

import "time"

type ChatAuthor string

const (
	AuthorService ChatAuthor = "service"
	AuthorClient  ChatAuthor = "client"
	AuthorExpert  ChatAuthor = "expert"
	AuthorSystem  ChatAuthor = "system"
)

type ChatAction struct {
	Label string `json:"label"`
	Reply string `json:"reply,omitempty"`
}

type ChatMessage struct {
	ID        string       `json:"id"`
	From      ChatAuthor   `json:"from"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"createdAt"`
	Actions   []ChatAction `json:"actions"`
}

// ChatThread - переписка с участником, сообщения только дописываются
type ChatThread struct {
	ID           string        `json:"id"`
	Participant  ClientRef     `json:"participant"`
	InspectionID string        `json:"inspectionId,omitempty"`
	SelectionID  string        `json:"selectionId,omitempty"`
	Messages     []ChatMessage `json:"messages"`
}

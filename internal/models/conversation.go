// Package models defines the data structures for conversation events.
package models

// ConversationIngested is emitted after an uploaded conversation has been
// transcribed, analyzed and written to the CRM.
type ConversationIngested struct {
	EventType       string `json:"eventType"`
	ConversationID  string `json:"conversationId"`
	LeadID          string `json:"leadId"`
	NoteID          string `json:"noteId"`
	TranscriptChars int    `json:"transcriptChars"`
	Timestamp       int64  `json:"timestamp"`
}

package model

// Message is one entry in a room's append-only sequence. Entries are never
// mutated; moderation deletes by index and per-viewer hiding filters on read.
type Message struct {
	Nick      string `json:"nick"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`

	Type           string `json:"type,omitempty"`
	FileType       string `json:"file_type,omitempty"`
	Forwarded      bool   `json:"forwarded,omitempty"`
	OriginalSender string `json:"original_sender,omitempty"`
}

// MessagesDoc is the messages collection: room -> ordered sequence,
// truncated FIFO to the configured history limit.
type MessagesDoc map[string][]Message

// HiddenDoc is the hidden_messages collection: nickname -> room -> indices
// hidden from that viewer only.
type HiddenDoc map[string]map[string][]int

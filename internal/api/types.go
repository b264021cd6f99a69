// File path: internal/api/types.go
package api

import "github.com/hybridrag/docqa/internal/rag"

type questionRequest struct {
	Question string `json:"question"`
}

type uploadResponse struct {
	Message        string   `json:"message"`
	DocumentCount  int      `json:"document_count"`
	NodeCount      int      `json:"node_count"`
	FilesProcessed []string `json:"files_processed"`
}

type askResponse struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Sources  []rag.Citation `json:"sources"`
}

type conversationResponse struct {
	ConversationHistory interface{} `json:"conversation_history"`
}

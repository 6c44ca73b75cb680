package models

import "time"

// Chat roles used in the dataset lines
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record is one prompt/completion pair destined for the dataset
type Record struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ChatMessage is one role-tagged message of a dataset line
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatLine is the wire form of a Record: a user/assistant message pair
type ChatLine struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatLine converts the record to its user/assistant message pair
func (r Record) ChatLine() ChatLine {
	return ChatLine{
		Messages: []ChatMessage{
			{Role: RoleUser, Content: r.Prompt},
			{Role: RoleAssistant, Content: r.Completion},
		},
	}
}

// DocumentSummary holds per-document build results for the manifest and run summary.
type DocumentSummary struct {
	ID          string `yaml:"id" json:"id"`
	Path        string `yaml:"path" json:"path"`                       // Relative to the input root (base name in single-file mode)
	Title       string `yaml:"title,omitempty" json:"title,omitempty"` // From front matter, if stripped
	ContentHash string `yaml:"content_hash" json:"content_hash"`
	Headings    int    `yaml:"headings" json:"headings"`
	Records     int    `yaml:"records" json:"records"`
	Tokens      int    `yaml:"tokens,omitempty" json:"tokens,omitempty"`
}

// DatasetManifest describes a single build run.
type DatasetManifest struct {
	RunID          string            `yaml:"run_id"`
	InputPath      string            `yaml:"input_path"`
	OutputPath     string            `yaml:"output_path"`
	BuildStartTime time.Time         `yaml:"build_start_time"`
	BuildEndTime   time.Time         `yaml:"build_end_time"`
	TotalDocuments int               `yaml:"total_documents"`
	TotalRecords   int               `yaml:"total_records"`
	TotalTokens    int               `yaml:"total_tokens,omitempty"`
	Settings       map[string]string `yaml:"settings,omitempty"`
	Documents      []DocumentSummary `yaml:"documents"`
}

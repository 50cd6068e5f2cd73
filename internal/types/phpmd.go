package types

// Violation is a single finding reported by phpmd. Line and column numbers are
// 1-based, exactly as phpmd emits them.
type Violation struct {
	BeginLine       int    `json:"beginLine"`
	EndLine         int    `json:"endLine"`
	BeginColumn     int    `json:"beginColumn"`
	EndColumn       int    `json:"endColumn"`
	Description     string `json:"description"`
	Rule            string `json:"rule"`
	RuleSet         string `json:"ruleSet"`
	Priority        int    `json:"priority"`
	ExternalInfoURL string `json:"externalInfoUrl,omitempty"`
}

type FileReport struct {
	File       string      `json:"file"`
	Violations []Violation `json:"violations"`
}

// ProcessingError is reported by phpmd when it cannot parse a file.
type ProcessingError struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

// AnalysisResult is the JSON document phpmd writes with the "json" renderer.
type AnalysisResult struct {
	Version   string            `json:"version,omitempty"`
	Package   string            `json:"package,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Files     []FileReport      `json:"files"`
	Errors    []ProcessingError `json:"errors,omitempty"`
}

// ViolationCount returns the number of violations across all files.
func (r AnalysisResult) ViolationCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Violations)
	}
	return n
}

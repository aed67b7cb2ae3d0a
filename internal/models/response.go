package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MethodsResponse lists the available FAP methods
type MethodsResponse struct {
	Methods        []string `json:"methods"`
	Default        string   `json:"default"`
	Normalizations []string `json:"normalizations"`
}

// ResultsResponse carries a finished sweep table
type ResultsResponse struct {
	JobID   string      `json:"job_id,omitempty"`
	Count   int         `json:"count"`
	Flagged int         `json:"flagged"`
	Results interface{} `json:"results"`
}

// JobListResponse lists sweep jobs
type JobListResponse struct {
	Jobs  interface{} `json:"jobs"`
	Count int         `json:"count"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

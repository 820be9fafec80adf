package model

type AnalyzeResponse struct {
	ID     string         `json:"id"`
	Result AnalysisResult `json:"result"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type AnalysesResponse struct {
	Results map[string]AnalysisResult `json:"results"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

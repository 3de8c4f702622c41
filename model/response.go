package model

// AreaResponse 检测到树木时的响应
type AreaResponse struct {
	Success bool `json:"success"`
	*AnalysisResult
}

// NoTreesResponse 未检测到树木时的响应
type NoTreesResponse struct {
	Success             bool              `json:"success"`
	Message             string            `json:"message"`
	TotalTrees          int               `json:"total_trees"`
	TotalAreaM2         float64           `json:"total_area_m2"`
	TotalCircumferenceM float64           `json:"total_circumference_m"`
	GSD                 float64           `json:"gsd"`
	Trees               []TreeMeasurement `json:"trees"`
}

func NewNoTreesResponse(gsd float64) NoTreesResponse {
	return NoTreesResponse{
		Success: false,
		Message: "No trees detected",
		GSD:     gsd,
		Trees:   []TreeMeasurement{},
	}
}

// ErrorResponse 客户端错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServerErrorResponse 服务端错误响应
type ServerErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// CreditsResponse 积分估算响应
type CreditsResponse struct {
	Success     bool    `json:"success"`
	TotalTrees  int     `json:"total_trees"`
	TotalAreaM2 float64 `json:"total_area_m2"`
	GSD         float64 `json:"gsd"`
	Credits     int     `json:"credits"`
	Message     string  `json:"message"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelPath   string `json:"model_path"`
	Error       string `json:"error,omitempty"`
}

// StatusResponse 服务状态
type StatusResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Model     string            `json:"model"`
	Endpoints map[string]string `json:"endpoints"`
}

package model

// TreeMeasurement 单棵树的测量结果
type TreeMeasurement struct {
	TreeID         int     `json:"tree_id"`
	AreaM2         float64 `json:"area_m2"`
	AreaPx         int     `json:"area_px"`
	DiameterM      float64 `json:"diameter_m"`
	CircumferenceM float64 `json:"circumference_m"`
}

// ImageDimensions 源图像尺寸
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AnalysisResult 一次请求的汇总结果
type AnalysisResult struct {
	TotalTrees          int               `json:"total_trees"`
	TotalAreaM2         float64           `json:"total_area_m2"`
	TotalCircumferenceM float64           `json:"total_circumference_m"`
	AverageAreaM2       float64           `json:"average_area_m2"`
	GSD                 float64           `json:"gsd"`
	ImageDimensions     ImageDimensions   `json:"image_dimensions"`
	ImageMD5            string            `json:"image_md5,omitempty"`
	Trees               []TreeMeasurement `json:"trees"`
}

// DetectionSummary 缓存的推理结果，与 GSD 无关
type DetectionSummary struct {
	MD5       string `json:"md5"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	AreasPx   []int  `json:"areas_px"`
	Timestamp int64  `json:"timestamp"`
}

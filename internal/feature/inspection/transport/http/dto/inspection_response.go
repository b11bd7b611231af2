package dto

// DetectionResponse は検出1件のレスポンスDTOです。
type DetectionResponse struct {
	Class string       `json:"class"`
	Score float64      `json:"score"`
	BBox  [4]int       `json:"bbox"`           // x, y, w, h
	Mask  [][2]float64 `json:"mask,omitempty"` // マスクがある場合のみ
}

// InspectionMeta は推論結果のメタデータです。
type InspectionMeta struct {
	Width       int   `json:"width"`
	Height      int   `json:"height"`
	InferenceMs int64 `json:"inference_ms"`
	Kept        int   `json:"kept"`
	Discarded   int   `json:"discarded_below_threshold"`
}

// InferResponse はPOST /inferのレスポンスDTOです。
type InferResponse struct {
	Detections []DetectionResponse `json:"detections"`
	Meta       InspectionMeta      `json:"meta"`
	OverlayPNG string              `json:"overlay_png"` // base64エンコードされたPNG
	Summary    string              `json:"summary,omitempty"`
}

// InspectionRecordResponse は検査履歴1件のレスポンスDTOです。
type InspectionRecordResponse struct {
	ID          uint           `json:"id"`
	ModelID     string         `json:"model_id"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	InferenceMs int64          `json:"inference_ms"`
	Kept        int            `json:"kept"`
	Discarded   int            `json:"discarded"`
	ClassCounts map[string]int `json:"class_counts"`
	CreatedAt   string         `json:"created_at"` // RFC3339
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

package dto

// ModelInfo は利用可能なバックエンド1件です。
type ModelInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ModelsResponse はGET /modelsのレスポンスDTOです。
type ModelsResponse struct {
	Available []ModelInfo `json:"available"`
	Current   *string     `json:"current"` // ロード済みバックエンドがなければnull
}

// HealthResponse はGET /healthのレスポンスDTOです。
type HealthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	Backend       string `json:"backend"`
	YOLOAvailable bool   `json:"yolo_available"`
	HFAvailable   bool   `json:"hf_available"`
}

package ultralytics

import (
	"os"
	"time"
)

const (
	SourceSidecar = "sidecar"
	SourceONNX    = "onnx"
)

// Config はYOLOバックエンドの設定です。
type Config struct {
	Source       string        // "sidecar"（推論サービス）または "onnx"（gocvビルドのみ）
	InferenceURL string        // 推論サービスのベースURL（例: "http://localhost:5000"）
	ModelPath    string        // ONNXモデルのパス
	Timeout      time.Duration // HTTPリクエスト全体のタイムアウト
}

// LoadConfig は環境変数からYOLOバックエンドの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Source:       getEnv("YOLO_SOURCE", SourceSidecar),
		InferenceURL: getEnv("YOLO_INFERENCE_URL", "http://localhost:5000"),
		ModelPath:    getEnv("YOLO_MODEL_PATH", "./models/fabric.onnx"),
		Timeout:      60 * time.Second,
	}
	if d, err := time.ParseDuration(os.Getenv("YOLO_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

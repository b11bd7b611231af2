package huggingface

import (
	"os"
	"time"
)

const (
	SourceInferenceAPI = "inference_api"
	SourceCloudVision  = "cloud_vision"

	DefaultAPIURL = "https://api-inference.huggingface.co/models/facebook/detr-resnet-50"
)

// Config はラベル＋矩形系バックエンドの設定です。
type Config struct {
	Source   string // "inference_api" または "cloud_vision"
	APIURL   string
	APIToken string
	Timeout  time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Source:   getEnv("HF_SOURCE", SourceInferenceAPI),
		APIURL:   getEnv("HF_API_URL", DefaultAPIURL),
		APIToken: os.Getenv("HF_API_TOKEN"),
		Timeout:  60 * time.Second,
	}
	if d, err := time.ParseDuration(os.Getenv("HF_TIMEOUT")); err == nil && d > 0 {
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

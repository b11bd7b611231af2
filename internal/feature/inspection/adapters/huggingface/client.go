package huggingface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

// ErrMissingToken はAPIトークン未設定でクライアントを生成しようとした場合に返ります。
var ErrMissingToken = errors.New("HF_API_TOKEN is not set")

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Threshold float64 `json:"threshold"`
}

type apiError struct {
	Error string `json:"error"`
}

// InferenceAPIDetector はHuggingFace Inference APIの物体検出エンドポイントを呼び出すBackend実装です。
type InferenceAPIDetector struct {
	cfg    Config
	client *http.Client
}

// InferenceAPIDetectorがBackendを実装していることをコンパイル時に検証します。
var _ usecase.Backend = (*InferenceAPIDetector)(nil)

// NewInferenceAPIDetector はInferenceAPIDetectorを生成します。トークンが空ならエラーです。
func NewInferenceAPIDetector(cfg Config, client *http.Client) (*InferenceAPIDetector, error) {
	if cfg.APIToken == "" {
		return nil, ErrMissingToken
	}
	return &InferenceAPIDetector{cfg: cfg, client: client}, nil
}

// Detect は画像をbase64エンコードしたPNGとして送信し、結果を正規化して返します。
// 信頼度しきい値はAPI側のthresholdパラメータで適用されます。
func (d *InferenceAPIDetector) Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	payload, err := json.Marshal(inferenceRequest{
		Inputs:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		Parameters: inferenceParameters{Threshold: confThreshold},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIToken)

	res, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("huggingface http %d: %s", res.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("huggingface http %d: %s", res.StatusCode, truncate(strings.TrimSpace(string(body)), 512))
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	b := img.Bounds()
	return &entity.RawResult{
		Detections:  Normalize(rows, b.Dx(), b.Dy()),
		InferenceMs: elapsed,
		RawCount:    len(rows),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

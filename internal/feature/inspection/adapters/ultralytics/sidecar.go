package ultralytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

// predictResponse は推論サービスの/predictレスポンスです。
type predictResponse struct {
	Names      map[int]string `json:"names"`
	Detections []Row          `json:"detections"`
}

// SidecarDetector はultralyticsを動かす外部推論サービスにHTTPで問い合わせるBackend実装です。
type SidecarDetector struct {
	cfg    Config
	client *http.Client
}

// SidecarDetectorがBackendを実装していることをコンパイル時に検証します。
var _ usecase.Backend = (*SidecarDetector)(nil)

// NewSidecarDetector は指定された設定とHTTPクライアントでSidecarDetectorを生成します。
func NewSidecarDetector(cfg Config, client *http.Client) *SidecarDetector {
	return &SidecarDetector{cfg: cfg, client: client}
}

// CheckHealth は推論サービスが応答するかを確認します。起動時のモデルロード判定に使います。
func (s *SidecarDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/health"), nil)
	if err != nil {
		return err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("yolo service unhealthy: %d", res.StatusCode)
	}
	return nil
}

// Detect は画像をPNGで推論サービスへ送り、結果を正規化して返します。
// サービス側のNMSは無効化して呼び出します（iou=1.0, agnostic_nms=false）。
func (s *SidecarDetector) Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error) {
	body, contentType, err := buildPredictForm(img, confThreshold)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("/predict"), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("yolo service http %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	b := img.Bounds()
	return &entity.RawResult{
		Detections:  Normalize(out.Detections, out.Names, b.Dx(), b.Dy()),
		InferenceMs: elapsed,
		RawCount:    len(out.Detections),
	}, nil
}

func (s *SidecarDetector) endpoint(path string) string {
	return strings.TrimRight(s.cfg.InferenceURL, "/") + path
}

// buildPredictForm は/predictに送るmultipartボディを組み立てます。
func buildPredictForm(img image.Image, confThreshold float64) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}

	fields := map[string]string{
		"conf":         strconv.FormatFloat(confThreshold, 'f', -1, 64),
		"iou":          "1.0",
		"agnostic_nms": "false",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// Package usecase はinspectionフィーチャーのビジネスロジック（後処理パイプライン）を実装します。
package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"

	"fabric_backend/internal/feature/inspection/domain"
	"fabric_backend/internal/feature/inspection/domain/entity"
)

const (
	// MaxImageSize は画像アップロードの最大サイズ（10MiB）です。
	MaxImageSize = 10 * 1024 * 1024
	// DefaultModelID はmodel_id未指定時のバックエンドです。
	DefaultModelID = BackendUltra
	// DefaultConfidenceThreshold は信頼度しきい値のデフォルトです。
	DefaultConfidenceThreshold = 0.35
	// DefaultIoUThreshold はNMSのIoUしきい値のデフォルトです。
	DefaultIoUThreshold = 0.45
	// SummaryPromptTemplate は欠陥サマリー生成のプロンプトテンプレートです。
	SummaryPromptTemplate = "You are a textile quality inspector. A %dx%d fabric image was inspected and these defects were found: %s. " +
		"Summarize the condition of the fabric in two or three sentences for an operator."
)

// SupportedContentTypes は受け付ける画像のメディアタイプです。
var SupportedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// OverlayRenderer は検出結果を描き込んだ画像を生成します。入力画像は変更しません。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type OverlayRenderer interface {
	Render(img image.Image, dets []entity.Detection) image.Image
}

// DefectDescriber は検出結果の自然言語サマリーを生成します。
type DefectDescriber interface {
	// Describe はプロンプトからサマリーを生成します。
	Describe(ctx context.Context, prompt string) (string, error)
}

// InspectInput は1リクエスト分の入力です。
type InspectInput struct {
	ContentType string
	Data        []byte
	Params      entity.Params
}

// inspectionUsecase は受付から描画までの検査パイプラインを提供します。
type inspectionUsecase struct {
	registry  *Registry
	renderer  OverlayRenderer
	describer DefectDescriber
}

// NewInspectionUsecase はinspectionUsecaseの新しいインスタンスを生成します。
// describerはnilでもよく、その場合サマリーは生成しません。
func NewInspectionUsecase(registry *Registry, renderer OverlayRenderer, describer DefectDescriber) *inspectionUsecase {
	return &inspectionUsecase{registry: registry, renderer: renderer, describer: describer}
}

// Validate はデコード前に行える入力チェックです（メディアタイプ、サイズ、パラメータ範囲）。
func Validate(in InspectInput) error {
	if _, ok := SupportedContentTypes[in.ContentType]; !ok {
		return fmt.Errorf("%w: Invalid file type. Only JPEG, PNG, and WebP are supported.", domain.ErrInvalidInput)
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("%w: image data is empty", domain.ErrInvalidInput)
	}
	if len(in.Data) > MaxImageSize {
		return fmt.Errorf("%w: File size exceeds 10MB limit.", domain.ErrInvalidInput)
	}
	p := in.Params
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: conf_threshold must be within [0, 1]", domain.ErrInvalidInput)
	}
	if p.IoUThreshold < 0 || p.IoUThreshold > 1 {
		return fmt.Errorf("%w: iou_threshold must be within [0, 1]", domain.ErrInvalidInput)
	}
	return nil
}

// Inspect は検証→リサイズ→推論→抑制→フィルタ→描画の順にパイプラインを実行します。
// 途中で失敗した場合は部分的な結果を返しません。
func (u *inspectionUsecase) Inspect(ctx context.Context, in InspectInput) (*entity.InspectionResult, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image: %v", domain.ErrInvalidInput, err)
	}
	img := ResizeIfNeeded(toRGBA(decoded))
	bounds := img.Bounds()

	backend, ok := u.registry.Lookup(in.Params.ModelID)
	if !ok {
		return nil, fmt.Errorf("%w: Model %s is not available.", domain.ErrBackendUnavailable, in.Params.ModelID)
	}

	raw, err := backend.Detect(ctx, img, in.Params.ConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, err)
	}

	dets := raw.Detections
	discarded := 0
	if in.Params.EnableSuppression {
		before := len(dets)
		dets = Suppress(dets, in.Params.IoUThreshold)
		discarded += before - len(dets)
	}

	dets, filtered := FilterByClasses(dets, in.Params.ClassFilter)
	discarded += filtered

	slog.Debug("inspection pipeline finished",
		"model", in.Params.ModelID,
		"raw", raw.RawCount,
		"kept", len(dets),
		"discarded", discarded,
		"inference_ms", raw.InferenceMs)

	overlay := u.renderer.Render(img, dets)
	var buf bytes.Buffer
	if err := png.Encode(&buf, overlay); err != nil {
		return nil, fmt.Errorf("encode overlay png: %w", err)
	}

	result := &entity.InspectionResult{
		Detections:  dets,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		InferenceMs: raw.InferenceMs,
		Kept:        len(dets),
		Discarded:   discarded,
		OverlayPNG:  buf.Bytes(),
	}

	if in.Params.Describe && u.describer != nil {
		summary, err := u.describer.Describe(ctx, buildSummaryPrompt(result))
		if err != nil {
			slog.Warn("defect summary generation failed", "error", err)
		} else {
			result.Summary = strings.TrimSpace(summary)
		}
	}

	return result, nil
}

// toRGBA は任意の画像を原点(0,0)のRGBAに変換します（パレットやグレースケールもRGBに揃える）。
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func buildSummaryPrompt(r *entity.InspectionResult) string {
	counts := entity.CountByClass(r.Detections)
	if len(counts) == 0 {
		return fmt.Sprintf(SummaryPromptTemplate, r.Width, r.Height, "none")
	}
	parts := make([]string, 0, len(counts))
	for class, n := range counts {
		parts = append(parts, fmt.Sprintf("%s x%d", class, n))
	}
	sort.Strings(parts)
	return fmt.Sprintf(SummaryPromptTemplate, r.Width, r.Height, strings.Join(parts, ", "))
}

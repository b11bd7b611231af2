// Package gcvision はGoogle Cloud Vision APIの物体位置検出をラベル＋矩形系バックエンドとして提供します。
package gcvision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"fabric_backend/internal/feature/inspection/adapters/huggingface"
	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

// annotator はImageAnnotatorClientのうち使用するメソッドだけを切り出したものです。
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// ObjectLocalizer はVision APIのOBJECT_LOCALIZATIONで欠陥を検出します。
type ObjectLocalizer struct {
	client annotator
	closer func() error
}

// ObjectLocalizerがBackendを実装していることをコンパイル時に検証します。
var _ usecase.Backend = (*ObjectLocalizer)(nil)

// NewObjectLocalizer はADCを使用してObjectLocalizerの新しいインスタンスを生成します。
func NewObjectLocalizer(ctx context.Context) (*ObjectLocalizer, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &ObjectLocalizer{client: client, closer: client.Close}, nil
}

// Close はVision APIクライアントを解放します。
func (o *ObjectLocalizer) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer()
}

// Detect は画像の物体位置を検出し、正規化して返します。
// APIにしきい値パラメータがないため、信頼度しきい値はここで適用します。
func (o *ObjectLocalizer) Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: buf.Bytes()},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_OBJECT_LOCALIZATION},
				},
			},
		},
	}

	start := time.Now()
	resp, err := o.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	b := img.Bounds()
	var rows []huggingface.Row
	if len(resp.GetResponses()) > 0 {
		first := resp.GetResponses()[0]
		if first.GetError() != nil {
			return nil, fmt.Errorf("vision API error: %s", first.GetError().GetMessage())
		}
		rows = toRows(first.GetLocalizedObjectAnnotations(), b.Dx(), b.Dy(), confThreshold)
	}

	return &entity.RawResult{
		Detections:  huggingface.Normalize(rows, b.Dx(), b.Dy()),
		InferenceMs: elapsed,
		RawCount:    len(rows),
	}, nil
}

// toRows は正規化座標の注釈をピクセル座標のラベル＋矩形行に変換します。
func toRows(annotations []*visionpb.LocalizedObjectAnnotation, width, height int, confThreshold float64) []huggingface.Row {
	rows := make([]huggingface.Row, 0, len(annotations))
	for _, a := range annotations {
		score := float64(a.GetScore())
		if score < confThreshold {
			continue
		}
		vs := a.GetBoundingPoly().GetNormalizedVertices()
		if len(vs) == 0 {
			continue
		}
		box := huggingface.Box{
			XMin: float64(vs[0].GetX()),
			YMin: float64(vs[0].GetY()),
			XMax: float64(vs[0].GetX()),
			YMax: float64(vs[0].GetY()),
		}
		for _, v := range vs[1:] {
			box.XMin = min(box.XMin, float64(v.GetX()))
			box.YMin = min(box.YMin, float64(v.GetY()))
			box.XMax = max(box.XMax, float64(v.GetX()))
			box.YMax = max(box.YMax, float64(v.GetY()))
		}
		box.XMin *= float64(width)
		box.XMax *= float64(width)
		box.YMin *= float64(height)
		box.YMax *= float64(height)

		rows = append(rows, huggingface.Row{
			Score: score,
			Label: a.GetName(),
			Box:   box,
		})
	}
	return rows
}

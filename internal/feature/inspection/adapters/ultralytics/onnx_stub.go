//go:build !gocv

package ultralytics

import (
	"context"
	"errors"
	"image"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

// ErrONNXUnavailable はgocvタグなしでビルドされた場合にONNXソースを選ぶと返ります。
var ErrONNXUnavailable = errors.New("gocv build tag is not enabled")

// ONNXDetector はgocvなしビルド用のスタブです。
type ONNXDetector struct{}

var _ usecase.Backend = (*ONNXDetector)(nil)

// NewONNXDetector は常にErrONNXUnavailableを返します。
func NewONNXDetector(Config) (*ONNXDetector, error) {
	return nil, ErrONNXUnavailable
}

// Detect は常にErrONNXUnavailableを返します。
func (*ONNXDetector) Detect(context.Context, image.Image, float64) (*entity.RawResult, error) {
	return nil, ErrONNXUnavailable
}

// Close は何もしません。
func (*ONNXDetector) Close() error { return nil }

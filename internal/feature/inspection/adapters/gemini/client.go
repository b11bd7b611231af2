// Package gemini はGoogle Gemini APIを使用した欠陥サマリー生成クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"google.golang.org/genai"

	"fabric_backend/internal/feature/inspection/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Enabled はGEMINI_ENABLEDが真かを返します。
func Enabled() bool {
	v, err := strconv.ParseBool(os.Getenv("GEMINI_ENABLED"))
	return err == nil && v
}

// GeminiDescriber はGoogle Gemini APIを使用して欠陥サマリーを生成します。
type GeminiDescriber struct {
	client *genai.Client
	model  string
}

// GeminiDescriberがDefectDescriberを実装していることをコンパイル時に検証します。
var _ usecase.DefectDescriber = (*GeminiDescriber)(nil)

// NewGeminiDescriber はADCを使用してGeminiDescriberの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGeminiDescriber(ctx context.Context) (*GeminiDescriber, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiDescriber{client: client, model: DefaultModel}, nil
}

// Describe はプロンプトを使用して欠陥サマリーを生成します。
func (g *GeminiDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	return resp.Text(), nil
}

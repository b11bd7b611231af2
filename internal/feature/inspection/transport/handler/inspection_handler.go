// Package handler はinspectionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"fabric_backend/internal/feature/inspection/domain"
	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/transport/http/dto"
	"fabric_backend/internal/feature/inspection/usecase"
	platformhandler "fabric_backend/internal/platform/http/handler"
	jwtmw "fabric_backend/internal/platform/jwt"
)

// InspectionUsecase は検査パイプラインのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type InspectionUsecase interface {
	Inspect(ctx context.Context, in usecase.InspectInput) (*entity.InspectionResult, error)
}

// ModelCatalog はロード済みバックエンドの一覧を提供します。
type ModelCatalog interface {
	Available() []usecase.BackendInfo
	Current() (string, bool)
	Has(id string) bool
}

// InspectionHistory は検査履歴の記録と参照を提供します。
type InspectionHistory interface {
	Record(ctx context.Context, modelID string, result *entity.InspectionResult) error
	Recent(ctx context.Context, limit int) ([]entity.InspectionRecord, error)
}

// InspectionHandler は検査関連のHTTPリクエストを処理します。
type InspectionHandler struct {
	uc      InspectionUsecase
	models  ModelCatalog
	history InspectionHistory // nilなら履歴を記録しない
}

// NewInspectionHandler はInspectionHandlerの新しいインスタンスを生成します。
func NewInspectionHandler(uc InspectionUsecase, models ModelCatalog, history InspectionHistory) *InspectionHandler {
	return &InspectionHandler{uc: uc, models: models, history: history}
}

// maxUploadBody はmultipart全体の上限です（画像の上限にフォーム分の余裕を加えたもの）。
const maxUploadBody = usecase.MaxImageSize + 1<<20

const msgFileTooLarge = "File size exceeds 10MB limit."

// InferRequest は /infer のフォーム入力です。
type InferRequest struct {
	File          *multipart.FileHeader `form:"file" binding:"required"`
	ModelID       string                `form:"model_id"`
	ConfThreshold float64               `form:"conf_threshold" binding:"gte=0,lte=1"`
	IoUThreshold  float64               `form:"iou_threshold" binding:"gte=0,lte=1"`
	NMS           bool                  `form:"nms"`
	ClassFilter   string                `form:"class_filter"`
	Describe      bool                  `form:"describe"`
}

// newInferRequest は未指定項目のデフォルト値を埋めたInferRequestを返します。
func newInferRequest() InferRequest {
	return InferRequest{
		ModelID:       usecase.DefaultModelID,
		ConfThreshold: usecase.DefaultConfidenceThreshold,
		IoUThreshold:  usecase.DefaultIoUThreshold,
		NMS:           true,
	}
}

// Params は入力を推論パラメータに変換します。
func (r InferRequest) Params() entity.Params {
	return entity.Params{
		ModelID:             r.ModelID,
		ConfidenceThreshold: r.ConfThreshold,
		IoUThreshold:        r.IoUThreshold,
		EnableSuppression:   r.NMS,
		ClassFilter:         usecase.ParseClassFilter(r.ClassFilter),
		Describe:            r.Describe,
	}
}

// Infer は画像をアップロードして欠陥を検出します。
//
// エンドポイント: POST /infer
// Content-Type: multipart/form-data
// フィールド: file（必須）, model_id, conf_threshold, iou_threshold, nms, class_filter, describe
func (h *InspectionHandler) Infer(c *gin.Context) {
	log := requestLogger(c)

	// 上限を超えるアップロードは本文を読む前に拒否
	if c.Request.ContentLength > maxUploadBody {
		log.Warn("アップロードが上限を超過", "content_length", c.Request.ContentLength)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgFileTooLarge})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	req := newInferRequest()
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("推論リクエストのバインドに失敗", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	params := req.Params()
	log = log.With("model", params.ModelID)

	contentType := req.File.Header.Get("Content-Type")
	if _, ok := usecase.SupportedContentTypes[contentType]; !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid file type. Only JPEG, PNG, and WebP are supported."})
		return
	}
	if req.File.Size > usecase.MaxImageSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgFileTooLarge})
		return
	}

	f, err := req.File.Open()
	if err != nil {
		log.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to read image"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
	if err != nil {
		log.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to read image"})
		return
	}

	result, err := h.uc.Inspect(c.Request.Context(), usecase.InspectInput{
		ContentType: contentType,
		Data:        data,
		Params:      params,
	})
	if err != nil {
		status, msg := mapError(err)
		if status >= http.StatusInternalServerError {
			log.Error("推論に失敗", "error", err)
		} else {
			log.Warn("推論リクエストを拒否", "error", err)
		}
		c.JSON(status, dto.ErrorResponse{Error: msg})
		return
	}

	if h.history != nil {
		if err := h.history.Record(c.Request.Context(), params.ModelID, result); err != nil {
			log.Warn("検査履歴の保存に失敗", "error", err)
		}
	}

	c.JSON(http.StatusOK, toInferResponse(result))
}

// requestLogger はリクエストID・クライアント名・送信元を付与したロガーを返します。
func requestLogger(c *gin.Context) *slog.Logger {
	return slog.With(
		"request_id", c.GetString(platformhandler.ContextRequestID),
		"client", c.GetString(jwtmw.ContextClient),
		"remote_addr", c.ClientIP(),
	)
}

// bindErrorMessage はフォームのバインドエラーをクライアント向けメッセージに変換します。
func bindErrorMessage(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return msgFileTooLarge
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		if numErr.Func == "ParseBool" {
			return fmt.Sprintf("%q is not a boolean", numErr.Num)
		}
		return fmt.Sprintf("%q is not a number", numErr.Num)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch fe := verrs[0]; fe.Field() {
		case "File":
			return "file is required"
		case "ConfThreshold":
			return "conf_threshold must be within [0, 1]"
		case "IoUThreshold":
			return "iou_threshold must be within [0, 1]"
		default:
			return fmt.Sprintf("%s is invalid", fe.Field())
		}
	}
	return "invalid multipart form"
}

// Models はロード済みバックエンドの一覧と優先バックエンドを返します。
//
// エンドポイント: GET /models
func (h *InspectionHandler) Models(c *gin.Context) {
	available := h.models.Available()
	out := dto.ModelsResponse{Available: make([]dto.ModelInfo, 0, len(available))}
	for _, m := range available {
		out.Available = append(out.Available, dto.ModelInfo{ID: m.ID, Label: m.Label})
	}
	if id, ok := h.models.Current(); ok {
		out.Current = &id
	}
	c.JSON(http.StatusOK, out)
}

// Health はモデルのロード状況を返します。
//
// エンドポイント: GET /health
func (h *InspectionHandler) Health(c *gin.Context) {
	_, loaded := h.models.Current()
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:        "ok",
		ModelLoaded:   loaded,
		Backend:       "gin",
		YOLOAvailable: h.models.Has(usecase.BackendUltra),
		HFAvailable:   h.models.Has(usecase.BackendHF),
	})
}

// Inspections は検査履歴を新しい順に返します。
//
// エンドポイント: GET /inspections?limit=20
func (h *InspectionHandler) Inspections(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "inspection history is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usecase.DefaultHistoryLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be an integer"})
		return
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("検査履歴の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load inspection history"})
		return
	}

	out := make([]dto.InspectionRecordResponse, 0, len(records))
	for _, r := range records {
		counts := make(map[string]int, len(r.ClassCounts))
		for k, v := range r.ClassCounts {
			counts[string(k)] = v
		}
		out = append(out, dto.InspectionRecordResponse{
			ID:          r.ID,
			ModelID:     r.ModelID,
			Width:       r.Width,
			Height:      r.Height,
			InferenceMs: r.InferenceMs,
			Kept:        r.Kept,
			Discarded:   r.Discarded,
			ClassCounts: counts,
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// mapError はパイプラインのエラーをHTTPステータスとクライアント向けメッセージに変換します。
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.Message(err, domain.ErrInvalidInput)
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadRequest, domain.Message(err, domain.ErrBackendUnavailable)
	case errors.Is(err, domain.ErrInferenceFailure):
		return http.StatusInternalServerError, "Inference failed: " + domain.Message(err, domain.ErrInferenceFailure)
	default:
		return http.StatusInternalServerError, "Inference failed: " + err.Error()
	}
}

func toInferResponse(r *entity.InspectionResult) dto.InferResponse {
	dets := make([]dto.DetectionResponse, 0, len(r.Detections))
	for _, d := range r.Detections {
		out := dto.DetectionResponse{
			Class: string(d.Class),
			Score: d.Score,
			BBox:  [4]int{d.BBox.X, d.BBox.Y, d.BBox.Width, d.BBox.Height},
		}
		if len(d.Mask) > 0 {
			out.Mask = make([][2]float64, 0, len(d.Mask))
			for _, p := range d.Mask {
				out.Mask = append(out.Mask, [2]float64{p.X, p.Y})
			}
		}
		dets = append(dets, out)
	}
	return dto.InferResponse{
		Detections: dets,
		Meta: dto.InspectionMeta{
			Width:       r.Width,
			Height:      r.Height,
			InferenceMs: r.InferenceMs,
			Kept:        r.Kept,
			Discarded:   r.Discarded,
		},
		OverlayPNG: base64.StdEncoding.EncodeToString(r.OverlayPNG),
		Summary:    r.Summary,
	}
}

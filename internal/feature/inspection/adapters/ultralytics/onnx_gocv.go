//go:build gocv

package ultralytics

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

const onnxInputSide = 640

// ONNXDetector はYOLOv8のONNXモデルをOpenCV DNNでプロセス内実行するBackend実装です。
// マスクは出力しません（矩形のみ）。
type ONNXDetector struct {
	net gocv.Net
	mu  sync.Mutex
}

var _ usecase.Backend = (*ONNXDetector)(nil)

// NewONNXDetector はモデルファイルを読み込んでONNXDetectorを生成します。
func NewONNXDetector(cfg Config) (*ONNXDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	return &ONNXDetector{net: net}, nil
}

// Detect は画像を推論し、信頼度しきい値以上の検出を正規化して返します。NMSは行いません。
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(onnxInputSide, onnxInputSide), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	rows, err := parseOutput(output, float64(mat.Cols()), float64(mat.Rows()), confThreshold)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start).Milliseconds()

	b := img.Bounds()
	return &entity.RawResult{
		Detections:  Normalize(rows, TaxonomyNames(), b.Dx(), b.Dy()),
		InferenceMs: elapsed,
		RawCount:    len(rows),
	}, nil
}

// Close はモデルを解放します。
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// parseOutput はYOLOv8の出力テンソル[1, 4+クラス数, 候補数]を行に変換します。
func parseOutput(output gocv.Mat, imgW, imgH, confThreshold float64) ([]Row, error) {
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape: %v", sizes)
	}
	attrs, candidates := sizes[1], sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	sx := imgW / onnxInputSide
	sy := imgH / onnxInputSide

	var rows []Row
	for i := 0; i < candidates; i++ {
		best, bestID := float32(0), 0
		for c := 4; c < attrs; c++ {
			if s := data[c*candidates+i]; s > best {
				best, bestID = s, c-4
			}
		}
		if float64(best) < confThreshold {
			continue
		}
		cx := float64(data[0*candidates+i])
		cy := float64(data[1*candidates+i])
		w := float64(data[2*candidates+i])
		h := float64(data[3*candidates+i])
		rows = append(rows, Row{
			ClassID:    bestID,
			Confidence: float64(best),
			XYXY:       [4]float64{(cx - w/2) * sx, (cy - h/2) * sy, (cx + w/2) * sx, (cy + h/2) * sy},
		})
	}
	return rows, nil
}

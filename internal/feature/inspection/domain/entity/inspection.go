package entity

import "time"

// Params は1リクエスト分の推論パラメータです。
type Params struct {
	ModelID             string   // 使用するバックエンドID（"ultra" / "hf"）
	ConfidenceThreshold float64  // この値未満の検出はバックエンドが返さない
	IoUThreshold        float64  // これを超える重なりを重複とみなす
	EnableSuppression   bool     // NMSを適用するか
	ClassFilter         []string // 空なら全クラスを通す
	Describe            bool     // 欠陥サマリーを生成するか
}

// RawResult はバックエンド1回分の推論結果を正規化したものです。
type RawResult struct {
	Detections  []Detection
	InferenceMs int64 // 推論にかかった実時間（ミリ秒）
	RawCount    int   // 抑制・フィルタ前の検出数
}

// InspectionResult はパイプライン全体の結果です。
type InspectionResult struct {
	Detections  []Detection
	Width       int // リサイズ後の幅
	Height      int // リサイズ後の高さ
	InferenceMs int64
	Kept        int
	Discarded   int // 抑制での破棄数とクラスフィルタでの破棄数の合計
	OverlayPNG  []byte
	Summary     string // 生成された場合のみ
}

// InspectionRecord は検査履歴1件です。検出結果や画像そのものは保存しません。
type InspectionRecord struct {
	ID          uint
	ModelID     string
	Width       int
	Height      int
	InferenceMs int64
	Kept        int
	Discarded   int
	ClassCounts map[Class]int
	CreatedAt   time.Time
}

// CountByClass はクラスごとの検出数を集計します。
func CountByClass(dets []Detection) map[Class]int {
	counts := make(map[Class]int)
	for _, d := range dets {
		counts[d.Class]++
	}
	return counts
}

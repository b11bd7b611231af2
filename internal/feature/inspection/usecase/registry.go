package usecase

import (
	"context"
	"image"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

// Backend は検出モデルを共通の契約で呼び出すインターフェースです。
// 実装は信頼度しきい値をバックエンド側で適用し、正規化済みの検出を返します。
// 重なりの抑制は行いません（呼び出し側の責務です）。
type Backend interface {
	// Detect は画像に対して推論を行い、正規化済みの検出と計測値を返します。
	Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error)
}

// 公開するバックエンドIDと表示名です。
const (
	BackendUltra      = "ultra"
	BackendUltraLabel = "YOLOv8 (preferred)"
	BackendHF         = "hf"
	BackendHFLabel    = "HuggingFace DETR (fallback)"
)

// BackendInfo はクライアントに公開するバックエンドの識別子と表示名です。
type BackendInfo struct {
	ID    string
	Label string
}

// RegisteredBackend は起動時にロードできたバックエンド1件です。
type RegisteredBackend struct {
	BackendInfo
	Backend Backend
}

// Registry はID→バックエンドの対応表です。起動時に一度だけ構築され、以後変更されません。
type Registry struct {
	order    []BackendInfo
	backends map[string]Backend
}

// NewRegistry はロード済みバックエンドからRegistryを生成します。
// 先に渡したものが優先（current）になります。同じIDは最初のものだけを採用します。
func NewRegistry(entries ...RegisteredBackend) *Registry {
	r := &Registry{backends: make(map[string]Backend, len(entries))}
	for _, e := range entries {
		if e.Backend == nil {
			continue
		}
		if _, dup := r.backends[e.ID]; dup {
			continue
		}
		r.backends[e.ID] = e.Backend
		r.order = append(r.order, e.BackendInfo)
	}
	return r
}

// Lookup はIDに対応するバックエンドを返します。
func (r *Registry) Lookup(id string) (Backend, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// Has はIDのバックエンドがロード済みかを返します。
func (r *Registry) Has(id string) bool {
	_, ok := r.backends[id]
	return ok
}

// Available はロード済みバックエンドを優先順で返します。
func (r *Registry) Available() []BackendInfo {
	out := make([]BackendInfo, len(r.order))
	copy(out, r.order)
	return out
}

// Current は優先バックエンドのIDを返します。1つもロードされていなければfalseです。
func (r *Registry) Current() (string, bool) {
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[0].ID, true
}

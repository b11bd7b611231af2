package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"fabric_backend/internal/feature/inspection/adapters/gcvision"
	"fabric_backend/internal/feature/inspection/adapters/huggingface"
	"fabric_backend/internal/feature/inspection/adapters/ultralytics"
	"fabric_backend/internal/feature/inspection/usecase"
	platformhttp "fabric_backend/internal/platform/http"
)

// startupProbeTimeout は起動時のサイドカー疎通確認の上限です。
const startupProbeTimeout = 10 * time.Second

// loadBackends はYOLOを優先してバックエンドをロードし、不変のRegistryを返します。
// 返されたio.Closerは終了時に閉じる必要があります。
func loadBackends(ctx context.Context) (*usecase.Registry, []io.Closer) {
	var (
		entries []usecase.RegisteredBackend
		closers []io.Closer
	)

	ultra, closer, err := loadUltra(ctx, ultralytics.LoadConfig())
	if err != nil {
		slog.Warn("YOLO backend not loaded", "error", err)
	} else {
		slog.Info("YOLO backend loaded", "id", usecase.BackendUltra)
		entries = append(entries, usecase.RegisteredBackend{
			BackendInfo: usecase.BackendInfo{ID: usecase.BackendUltra, Label: usecase.BackendUltraLabel},
			Backend:     ultra,
		})
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	loadAll, _ := strconv.ParseBool(os.Getenv("LOAD_ALL_BACKENDS"))
	if ultra == nil || loadAll {
		hf, closer, err := loadHF(ctx, huggingface.LoadConfig())
		if err != nil {
			slog.Warn("HF backend not loaded", "error", err)
		} else {
			slog.Info("HF backend loaded", "id", usecase.BackendHF)
			entries = append(entries, usecase.RegisteredBackend{
				BackendInfo: usecase.BackendInfo{ID: usecase.BackendHF, Label: usecase.BackendHFLabel},
				Backend:     hf,
			})
			if closer != nil {
				closers = append(closers, closer)
			}
		}
	}

	registry := usecase.NewRegistry(entries...)
	if current, ok := registry.Current(); ok {
		slog.Info("model registry ready", "current", current, "available", len(registry.Available()))
	} else {
		slog.Warn("no detection backend available; /infer will reject every request")
	}
	return registry, closers
}

func loadUltra(ctx context.Context, cfg ultralytics.Config) (usecase.Backend, io.Closer, error) {
	switch cfg.Source {
	case ultralytics.SourceSidecar:
		d := ultralytics.NewSidecarDetector(cfg, platformhttp.NewHTTPClient(cfg.Timeout))
		probeCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
		defer cancel()
		if err := d.CheckHealth(probeCtx); err != nil {
			return nil, nil, err
		}
		return d, nil, nil
	case ultralytics.SourceONNX:
		d, err := ultralytics.NewONNXDetector(cfg)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	default:
		return nil, nil, fmt.Errorf("unknown YOLO_SOURCE %q", cfg.Source)
	}
}

func loadHF(ctx context.Context, cfg huggingface.Config) (usecase.Backend, io.Closer, error) {
	switch cfg.Source {
	case huggingface.SourceInferenceAPI:
		d, err := huggingface.NewInferenceAPIDetector(cfg, platformhttp.NewHTTPClient(cfg.Timeout))
		if err != nil {
			return nil, nil, err
		}
		return d, nil, nil
	case huggingface.SourceCloudVision:
		d, err := gcvision.NewObjectLocalizer(ctx)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	default:
		return nil, nil, fmt.Errorf("unknown HF_SOURCE %q", cfg.Source)
	}
}

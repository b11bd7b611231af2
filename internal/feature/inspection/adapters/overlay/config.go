package overlay

import "os"

// Config はオーバーレイ描画の設定です。
type Config struct {
	FontPath string
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	path := os.Getenv("FONT_PATH")
	if path == "" {
		path = DefaultFontPath
	}
	return Config{FontPath: path}
}

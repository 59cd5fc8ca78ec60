package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// OpenAI設定（翻訳・音声・モデル一覧用）
	OpenAI OpenAIConfig

	// Translate は翻訳動作の設定
	Translate TranslateConfig

	// Overlay は画像オーバーレイの描画設定
	Overlay OverlayConfig

	// OCR はテキスト抽出の設定
	OCR OCRConfig

	// DataDir はバックアップ・履歴・キャッシュの保存先
	DataDir string

	// BackupTTLDays はバックアップの保持日数
	BackupTTLDays int

	// HistoryLimit は履歴の最大保持件数
	HistoryLimit int
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// TranslateConfig は翻訳動作の設定
type TranslateConfig struct {
	SourceLang string
	TargetLang string
	// Suffix は出力ファイル名に付与する接尾辞
	Suffix string
	// WorkerCount はディレクトリ一括翻訳の並行度
	WorkerCount int
	// RenderDPI はPDFのラスタ化解像度
	RenderDPI int
}

// OverlayConfig は画像オーバーレイの描画設定
type OverlayConfig struct {
	TextColor     string
	StrokeColor   string
	FillColor     string
	FontSize      float64
	FontPath      string
	MinConfidence float64
}

// OCRConfig はテキスト抽出の設定
type OCRConfig struct {
	// Languages は Tesseract に渡す言語セット（例: "jpn+eng"）
	Languages string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("HONYAKU_MODEL", "gpt-4o-mini"),
		},
		Translate: TranslateConfig{
			SourceLang:  getEnv("HONYAKU_SOURCE_LANG", "auto"),
			TargetLang:  getEnv("HONYAKU_TARGET_LANG", "ja"),
			Suffix:      getEnv("HONYAKU_SUFFIX", "_translated"),
			WorkerCount: getEnvAsInt("HONYAKU_WORKERS", 3),
			RenderDPI:   getEnvAsInt("HONYAKU_RENDER_DPI", 200),
		},
		Overlay: OverlayConfig{
			TextColor:     getEnv("HONYAKU_OVERLAY_TEXT_COLOR", "#000000"),
			StrokeColor:   getEnv("HONYAKU_OVERLAY_STROKE_COLOR", "#ff0000"),
			FillColor:     getEnv("HONYAKU_OVERLAY_FILL_COLOR", "#ffffff"),
			FontSize:      getEnvAsFloat("HONYAKU_OVERLAY_FONT_SIZE", 14),
			FontPath:      getEnv("HONYAKU_OVERLAY_FONT", ""),
			MinConfidence: getEnvAsFloat("HONYAKU_MIN_CONFIDENCE", 0.5),
		},
		OCR: OCRConfig{
			Languages: getEnv("HONYAKU_OCR_LANGUAGES", "jpn+eng"),
		},
		DataDir:       getEnv("HONYAKU_DATA_DIR", defaultDataDir()),
		BackupTTLDays: getEnvAsInt("HONYAKU_BACKUP_TTL_DAYS", 30),
		HistoryLimit:  getEnvAsInt("HONYAKU_HISTORY_LIMIT", 100),
	}

	return cfg, nil
}

// defaultDataDir は既定のデータディレクトリを返します
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".honyaku"
	}
	return filepath.Join(home, ".honyaku")
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

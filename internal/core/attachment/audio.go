package attachment

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// Transcriber は音声データをテキストに変換する
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

// Synthesizer はテキストから音声データを生成する
// 戻り値は音声のバイト列と実際の MIME タイプ
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang string) ([]byte, string, error)
}

// AudioHandler は音声を文字起こし→翻訳→音声合成のパイプラインで処理する
// いずれかの段階の失敗はジョブ全体の失敗となる
type AudioHandler struct {
	transcriber Transcriber
	synthesizer Synthesizer
}

// NewAudioHandler は新しい AudioHandler を作成する
func NewAudioHandler(transcriber Transcriber, synthesizer Synthesizer) *AudioHandler {
	return &AudioHandler{transcriber: transcriber, synthesizer: synthesizer}
}

// Translate は Handler インターフェースの実装
// 文字起こし結果の翻訳にはプレーンテキストと同じ経路を使用する
func (h *AudioHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	transcript, err := h.transcriber.Transcribe(ctx, job.Data, job.MIME)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("no speech detected in audio")
	}

	textJob := *job
	textJob.Data = []byte(transcript)
	textJob.Kind = KindText
	textJob.MIME = MimeText

	translated, err := NewTextHandler(false).Translate(ctx, &textJob, o)
	if err != nil {
		return nil, fmt.Errorf("failed to translate transcript: %w", err)
	}

	voice, mime, err := h.synthesizer.Synthesize(ctx, string(translated.Bytes), job.Options.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}
	return &Result{Bytes: voice, MIME: mime, Model: translated.Model}, nil
}

var _ Handler = (*AudioHandler)(nil)

package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultTranscribeModel はデフォルトの文字起こしモデル
	DefaultTranscribeModel = openai.AudioModelWhisper1

	// DefaultSpeechModel はデフォルトの音声合成モデル
	DefaultSpeechModel = openai.SpeechModelTTS1

	// DefaultVoice はデフォルトの合成音声
	DefaultVoice = openai.AudioSpeechNewParamsVoiceAlloy

	// DefaultAudioTimeout は音声 API のデフォルトタイムアウト
	// 音声の変換はテキスト補完より長くかかる
	DefaultAudioTimeout = 120 * time.Second
)

// AudioClient は OpenAI API を使用した文字起こし・音声合成の実装
type AudioClient struct {
	client  openai.Client
	timeout time.Duration
}

// NewAudioClient はAPIキーを指定して AudioClient を作成する
func NewAudioClient(apiKey string) (*AudioClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return &AudioClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		timeout: DefaultAudioTimeout,
	}, nil
}

// Transcribe は音声データをテキストに変換する
func (a *AudioClient) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name := "audio" + audioExtension(mime)
	transcription, err := a.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: DefaultTranscribeModel,
		File:  openai.File(bytes.NewReader(audio), name, mime),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription failed: %w", err)
	}
	return transcription.Text, nil
}

// Synthesize はテキストから音声データを生成する
// 出力は常に MP3 形式となる
func (a *AudioClient) Synthesize(ctx context.Context, text string, lang string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          DefaultSpeechModel,
		Voice:          DefaultVoice,
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, "", fmt.Errorf("OpenAI speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	return data, "audio/mpeg", nil
}

// audioExtension はアップロード用ファイル名の拡張子を MIME から決める
func audioExtension(mime string) string {
	switch mime {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/flac":
		return ".flac"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	default:
		return ".mp3"
	}
}

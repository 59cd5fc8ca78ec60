// Package openai は OpenAI API を使用した翻訳・音声・モデル一覧の実装を提供する
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/honyaku/internal/core/oracle"
)

const (
	// DefaultModel はデフォルトで使用するOpenAIモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

	// ErrInvalidResponseFormat は不正なレスポンス形式のエラー
	ErrInvalidResponseFormat = errors.New("invalid response format")
)

// Translator は OpenAI API を使用した翻訳オラクル実装
type Translator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewTranslator はAPIキーとモデルを指定して Translator を作成する
func NewTranslator(apiKey, model string) (*Translator, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Translator{
		client:  client,
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定する
func (t *Translator) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

// ModelName はモデル名を返す
func (t *Translator) ModelName() string {
	return t.model
}

// translationPayload はモデルに要求するレスポンスの JSON 形式
type translationPayload struct {
	Translated   string   `json:"translated"`
	Reading      string   `json:"reading"`
	Alternatives []string `json:"alternatives"`
	Correction   string   `json:"correction"`
}

// Translate は oracle.Oracle インターフェースの実装
// API エラーはリトライせずそのまま呼び出し元へ伝播する
func (t *Translator) Translate(ctx context.Context, req oracle.Request) (*oracle.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(req)),
			openai.UserMessage(req.Text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	}

	completion, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	var payload translationPayload
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseFormat, err)
	}
	if payload.Translated == "" {
		return nil, fmt.Errorf("%w: empty translation", ErrInvalidResponseFormat)
	}

	return &oracle.Result{
		Translated:   payload.Translated,
		Reading:      payload.Reading,
		Alternatives: payload.Alternatives,
		Correction:   payload.Correction,
		Model:        string(completion.Model),
	}, nil
}

// buildSystemPrompt は翻訳指示のシステムプロンプトを組み立てる
func buildSystemPrompt(req oracle.Request) string {
	var b strings.Builder

	source := req.SourceLang
	if source == "" || source == "auto" {
		source = "the auto-detected language"
	}
	fmt.Fprintf(&b, "You are a professional translator. Translate the user's text from %s to %s.\n", source, req.TargetLang)

	switch req.Style {
	case "casual":
		b.WriteString("Use a casual, conversational register.\n")
	case "formal":
		b.WriteString("Use a formal, polite register.\n")
	}
	if req.Slang {
		b.WriteString("Preserve slang and explain idiomatic expressions naturally in the target language.\n")
	}

	b.WriteString(`Respond with a JSON object of the form:
{"translated": "...", "reading": "...", "alternatives": ["..."], "correction": "..."}
- translated: the translation of the whole input text
- reading: if the translation is Japanese, its kana reading; otherwise an empty string
- alternatives: up to 3 alternative translations (may be empty)
- correction: the input with obvious typos fixed, or an empty string if no correction is needed
Do not add any commentary outside the JSON object.`)

	return b.String()
}

// インターフェース実装の確認
var _ oracle.Oracle = (*Translator)(nil)

package attachment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jinford/honyaku/internal/core/oracle"
)

// Job は1ファイル（または1ストリーム）分の翻訳処理を表す
// 生成したワーカーが排他的に所有し、出力の書き込みまたは失敗で破棄される
type Job struct {
	ID      uuid.UUID
	Name    string
	Data    []byte
	Kind    Kind
	MIME    string
	Options oracle.Options
}

// NewJob は入力バイト列から Job を作成する
func NewJob(name string, data []byte, resolved Resolved, opts oracle.Options) *Job {
	return &Job{
		ID:      uuid.New(),
		Name:    name,
		Data:    data,
		Kind:    resolved.Kind,
		MIME:    resolved.MIME,
		Options: opts,
	}
}

// Result は翻訳済み添付の再構築結果
type Result struct {
	// Bytes は出力コンテナのバイト列
	Bytes []byte
	// MIME は出力の MIME（入力コンテナと一致させる）
	MIME string
	// Model は使用されたモデル名（履歴記録用）
	Model string
}

// Unit はオラクルへ送る原子的な翻訳単位
type Unit struct {
	Text string
}

// Extraction は抽出結果。Units を翻訳した後、同じ順序の訳文を
// Reconstruct に渡すことで出力コンテナを再構築する
type Extraction struct {
	Units       []Unit
	Reconstruct func(translated []string) ([]byte, error)
}

// UnitHandler は抽出→単位翻訳→再構築の3段で処理できる種別のハンドラ
type UnitHandler interface {
	Extract(src []byte) (*Extraction, error)
}

// Handler は添付1件をまるごと翻訳するハンドラ
type Handler interface {
	Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error)
}

// Registry は Kind からハンドラへの対応表
// Kind は閉じた列挙であり、ディスパッチはここの単一 switch に限定する
type Registry struct {
	text   *TextHandler
	markup *MarkupHandler
	office *OfficeHandler
	image  *ImageHandler
	pdf    *PDFHandler
	audio  *AudioHandler
	logger *slog.Logger
}

// RegistryConfig は Registry の構成要素
type RegistryConfig struct {
	Text   *TextHandler
	Markup *MarkupHandler
	Office *OfficeHandler
	Image  *ImageHandler
	PDF    *PDFHandler
	Audio  *AudioHandler
	Logger *slog.Logger
}

// NewRegistry は新しい Registry を作成する
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		text:   cfg.Text,
		markup: cfg.Markup,
		office: cfg.Office,
		image:  cfg.Image,
		pdf:    cfg.PDF,
		audio:  cfg.Audio,
		logger: logger,
	}
}

// Translate は Job の種別に応じたハンドラで翻訳を実行する
// 種別に対応するハンドラが構成されていない場合は ErrUnsupportedKind を返す
func (r *Registry) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	var handler Handler
	switch job.Kind {
	case KindText:
		if r.text != nil {
			handler = r.text
		}
	case KindMarkup:
		if r.markup != nil {
			handler = r.markup
		}
	case KindOffice:
		if r.office != nil {
			handler = r.office
		}
	case KindImage:
		if r.image != nil {
			handler = r.image
		}
	case KindPDF:
		if r.pdf != nil {
			handler = r.pdf
		}
	case KindAudio:
		if r.audio != nil {
			handler = r.audio
		}
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, job.MIME)
	}

	r.logger.Debug("添付の翻訳を開始",
		"job_id", job.ID.String(),
		"name", job.Name,
		"kind", job.Kind.String(),
		"mime", job.MIME,
	)
	return handler.Translate(ctx, job, o)
}

// translateUnits は UnitHandler 共通の翻訳駆動部
// 抽出した各単位をメモ化付きでオラクルへ送り、訳文列で再構築する
func translateUnits(ctx context.Context, h UnitHandler, job *Job, o oracle.Oracle) (*Result, error) {
	ex, err := h.Extract(job.Data)
	if err != nil {
		return nil, err
	}

	memo := oracle.NewMemo(o)
	translated := make([]string, len(ex.Units))
	for i, unit := range ex.Units {
		result, err := memo.Translate(ctx, oracle.NewRequest(unit.Text, job.Options))
		if err != nil {
			return nil, err
		}
		translated[i] = result.Translated
	}

	out, err := ex.Reconstruct(translated)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, MIME: job.MIME, Model: memo.Model()}, nil
}

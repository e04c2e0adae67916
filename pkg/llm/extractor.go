package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/shouni/go-happyhour-scout/pkg/types"
)

// ----------------------------------------------------------------------
// 定数定義 (プロンプト関連のみ)
// ----------------------------------------------------------------------

const (
	// DefaultModel は、抽出に使用するデフォルトのモデルです。
	DefaultModel = openai.GPT4oMini

	systemPrompt = "You are a helpful assistant that extracts happy hour information from website text. Return valid JSON only."

	// instructionTemplate は、期待する出力スキーマを記述した固定の指示文です。
	// %s にはCandidateのブロック列が入ります。
	instructionTemplate = `Extract ONLY explicit happy hour information from the following text blocks. For each happy hour period, return:
- days: Array of days of the week (use full names: Monday, Tuesday, etc.)
- startTime: Start time in 24-hour HH:MM format
- endTime: End time in 24-hour HH:MM format
- deals: Array of deal descriptions (optional)
- sourceUrl: the URL where this text came from

Return in this JSON format:
{
    "happyHours": [
        {
            "days": ["Monday", "Tuesday"],
            "startTime": "15:00",
            "endTime": "18:00",
            "deals": ["$5 select beers", "Half-price appetizers"],
            "sourceUrl": "https://..."
        }
    ]
}

If no happy hour information is found, return: {"happyHours": []}

Text blocks (only use these):
%s`
)

// fencedJSONPattern は、フェンス付きコードブロック内のJSONオブジェクトを拾います。
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ----------------------------------------------------------------------
// 設定とコンストラクタ
// ----------------------------------------------------------------------

// Config は、抽出コラボレーターの設定です。プロセス起動時に一度だけ構築され、
// このパッケージの外 (特にクローラ) からは参照されません。
type Config struct {
	APIKey string
	Model  string // 空ならDefaultModel
}

// Extractor は、Candidate列を構造化されたハッピーアワー情報へ変換します。
type Extractor struct {
	client *openai.Client
	model  string
}

// New は、新しいExtractorを生成します。APIキーは必須です。
func New(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm.New: APIキーが設定されていません")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// BuildPayload は、Candidate列を "URL: <url>\n---\n<text>" 形式のブロック列へ
// 整形し、空行で連結します。これがコラボレーターへ渡す唯一の本文です。
func BuildPayload(cands []types.Candidate) string {
	blocks := make([]string, 0, len(cands))
	for _, c := range cands {
		blocks = append(blocks, fmt.Sprintf("URL: %s\n---\n%s", c.URL, c.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// Extract は、Candidate列をモデルへ送り、構造化された結果を返します。
// 通信自体の失敗はエラーとして返しますが、応答が不正なJSONである場合は
// 空の結果へフォールバックし、エラーにはしません。
func (e *Extractor) Extract(ctx context.Context, cands []types.Candidate) (types.Result, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(instructionTemplate, BuildPayload(cands))},
		},
	})
	if err != nil {
		return types.Result{}, fmt.Errorf("抽出コラボレーターへのリクエストに失敗しました: %w", err)
	}
	if len(resp.Choices) == 0 {
		return types.Result{}, fmt.Errorf("抽出コラボレーターが空の応答を返しました")
	}

	return ParseResult(resp.Choices[0].Message.Content), nil
}

// ParseResult は、応答テキストをJSONとして解釈します。直接のパースに失敗した
// 場合はフェンス付きJSONブロックの抽出を試み、それも失敗すれば空の結果を返します。
func ParseResult(response string) types.Result {
	var result types.Result
	if err := json.Unmarshal([]byte(response), &result); err == nil {
		return normalized(result)
	}

	if m := fencedJSONPattern.FindStringSubmatch(response); m != nil {
		var fenced types.Result
		if err := json.Unmarshal([]byte(m[1]), &fenced); err == nil {
			return normalized(fenced)
		}
	}

	return types.Result{HappyHours: []types.HappyHour{}}
}

// normalized は、JSON出力が常に happyHours 配列を持つことを保証します。
func normalized(r types.Result) types.Result {
	if r.HappyHours == nil {
		r.HappyHours = []types.HappyHour{}
	}
	return r
}

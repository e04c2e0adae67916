package types

// Snippet は、訪問に成功した1ページから得られた整形済みテキストを保持します。
// クロールの処理順 (BFS順) に収集され、SourceURL はクロール内で一意です。
type Snippet struct {
	SourceURL string // 取得元ページのURL
	Text      string // 整形済みの本文テキスト
}

// Candidate は、ハッピーアワー情報を含む可能性が高いと判定された抜粋です。
// 抽出コラボレーターへ渡す前に件数の上限が適用されます。
type Candidate struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// HappyHour は、抽出コラボレーターが返す1件のハッピーアワー情報です。
type HappyHour struct {
	Days      []string `json:"days"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Deals     []string `json:"deals,omitempty"`
	SourceURL string   `json:"sourceUrl"`
}

// Result は、標準出力へ書き出される最終のJSONオブジェクトです。
type Result struct {
	HappyHours []HappyHour `json:"happyHours"`
}

package cmd

import (
	"encoding/json"
	"os"
)

// printJSON は、結果オブジェクトを標準出力へ単一のJSONとして書き出します。
func printJSON(v any) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// failWithJSON は、{"error": <message>} を標準出力へ書き出したうえで
// エラーを返し、非ゼロ終了につなげます。
func failWithJSON(err error) error {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
	return err
}

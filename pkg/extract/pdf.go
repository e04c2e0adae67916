package extract

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// PDFText は、PDFの生バイト列からプレーンテキストを抽出します。
// 壊れたPDFや抽出機能が扱えない形式はエラーではなく空文字列として扱います。
func PDFText(data []byte) (text string) {
	// ledongthuc/pdf は不正な入力で panic することがあるため、ここで吸収する
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return ""
	}
	return buf.String()
}

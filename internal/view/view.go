// Package view は打刻端末向けHTMLページの描画を提供する。
// テンプレートはバイナリに埋め込み、ハンドラーからはmap[string]anyで値を受け取る。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページ名
const (
	PageIndex        = "index.html"
	PageAuthenticate = "authenticate.html"
	PageInfo         = "info.html"
	PageFailed       = "failed.html"
)

// DateLayout はparseDateが出力する日時フォーマット。
const DateLayout = "2006-01-02 15:04"

var pages = []string{PageIndex, PageAuthenticate, PageInfo, PageFailed}

// Renderer は埋め込みテンプレートからHTMLを生成する。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は全ページのテンプレートを解析してRendererを生成する。
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"parseDate": parseDate,
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("テンプレートの解析に失敗しました (%s): %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates}, nil
}

// Render はpageをdataで描画してwに書き込む。
// 描画途中で失敗した場合に部分的なHTMLを返さないよう、バッファに描画してから書き込む。
func (r *Renderer) Render(w io.Writer, page string, data map[string]any) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// parseDate は時刻をDateLayoutで整形する。時刻以外の値はそのまま文字列にする。
func parseDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(DateLayout)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

package middleware

import "net/http"

// Stage はパイプラインを構成する名前付きミドルウェア。
type Stage struct {
	Name string
	Wrap func(http.Handler) http.Handler
}

// Pipeline はリクエストが通過するミドルウェアの順序付きリスト。
// 先頭のStageが最も外側になる。
type Pipeline []Stage

// Then はパイプラインでhを包んだハンドラーを返す。
func (p Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p) - 1; i >= 0; i-- {
		h = p[i].Wrap(h)
	}
	return h
}

// Append はstagesを末尾に追加した新しいPipelineを返す。元のPipelineは変更しない。
func (p Pipeline) Append(stages ...Stage) Pipeline {
	out := make(Pipeline, 0, len(p)+len(stages))
	out = append(out, p...)
	return append(out, stages...)
}

// Names はStage名を順番に返す。起動時のログ出力に使う。
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// Middlewares はchiのUseに渡せる形式で返す。
func (p Pipeline) Middlewares() []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, len(p))
	for i, s := range p {
		out[i] = s.Wrap
	}
	return out
}

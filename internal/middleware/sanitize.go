package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/security"
)

// RequestSanitizer はリクエストのbody・queryをサニタイズし、
// クエリ演算子インジェクションを検査するミドルウェアを提供する。
// サニタイズ順序: ボディサイズ制限 → 入力サニタイズ → インジェクション検査。
// 後段のステージとハンドラーは必ずサニタイズ済みの値を観測する。
type RequestSanitizer struct {
	input        security.InputSanitizer
	guard        security.InjectionGuard
	maxBodyBytes int64
	metrics      SecurityEventRecorder
}

// NewRequestSanitizer はRequestSanitizerを生成する。
// maxBodyBytesはサニタイズ前に適用するリクエストボディの上限サイズ。
// metricsはnilでもよい。
func NewRequestSanitizer(input security.InputSanitizer, guard security.InjectionGuard, maxBodyBytes int64, metrics SecurityEventRecorder) *RequestSanitizer {
	return &RequestSanitizer{
		input:        input,
		guard:        guard,
		maxBodyBytes: maxBodyBytes,
		metrics:      metrics,
	}
}

// Middleware は入力サニタイズとインジェクション検査のミドルウェアを返す。
// 拒否リストの演算子が検出された場合は400を返し、以降の処理は行わない。
// どのフィールドが原因かはレスポンスに含めない。
func (s *RequestSanitizer) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// クエリパラメータの処理
			query, rejected := s.processQuery(r.URL.Query())
			if rejected {
				slog.Warn("injection operator detected in query",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				s.reject(w)
				return
			}
			r.URL.RawQuery = query.Encode()

			// ボディの処理（サイズ制限はサニタイズより前に適用する）
			if r.Body != nil && r.ContentLength != 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

				body, err := io.ReadAll(r.Body)
				if err != nil {
					var maxErr *http.MaxBytesError
					if errors.As(err, &maxErr) {
						WriteErrorResponse(w, http.StatusRequestEntityTooLarge, &model.APIError{
							Code:     "BODY_TOO_LARGE",
							Message:  "リクエストボディが大きすぎます。",
							Category: "validation",
							Action:   "ボディサイズを小さくして再送信してください。",
						})
						return
					}
					WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(nil))
					return
				}

				cleaned, rejected := s.processBody(body)
				if rejected {
					slog.Warn("injection operator detected in body",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					s.reject(w)
					return
				}

				r.Body = io.NopCloser(bytes.NewReader(cleaned))
				r.ContentLength = int64(len(cleaned))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject はインジェクション拒否をメトリクスに記録して400レスポンスを書き込む。
func (s *RequestSanitizer) reject(w http.ResponseWriter) {
	if s.metrics != nil {
		s.metrics.RecordSecurityRejection("injection")
	}
	WriteErrorResponse(w, http.StatusBadRequest, model.NewInjectionRejectedError())
}

// processQuery はクエリパラメータをサニタイズ・検査する。
// 拒否リストの演算子が見つかった場合はrejected=trueを返す。
func (s *RequestSanitizer) processQuery(values url.Values) (url.Values, bool) {
	out := make(url.Values, len(values))
	for key, vals := range values {
		for _, v := range vals {
			sanitized := s.input.SanitizeString(v)
			cleaned, err := s.guard.Inspect(sanitized)
			if err != nil {
				return nil, true
			}
			out.Add(key, cleaned.(string))
		}
	}
	return out, false
}

// processBody はJSONボディをサニタイズ・検査する。
// JSONとして解釈できないボディは型不正としてそのまま通過させる
// （ハンドラーのデコードで適切な400が返る）。
func (s *RequestSanitizer) processBody(body []byte) ([]byte, bool) {
	if len(body) == 0 {
		return body, false
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return body, false
	}

	sanitized := s.input.SanitizeValue(value)
	cleaned, err := s.guard.Inspect(sanitized)
	if err != nil {
		return nil, true
	}

	out, err := json.Marshal(cleaned)
	if err != nil {
		return body, false
	}
	return out, false
}

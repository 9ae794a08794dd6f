package dto

// JobResult はジョブトリガーのレスポンスです。
// ok のときは Records、skipped のときは Message を返します。
type JobResult struct {
	Status  string `json:"status"`
	Records *int   `json:"records,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse は致命的な失敗時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

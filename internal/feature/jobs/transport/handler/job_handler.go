package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_sync/internal/feature/jobs/transport/http/dto"
	syncusecase "stock_sync/internal/feature/synclog/usecase"
)

// JobRunner はジョブを実行し結果を返します。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type JobRunner interface {
	Run(ctx context.Context, job syncusecase.Job) (syncusecase.Outcome, error)
}

// JobHandler は1つの同期ジョブのトリガーを処理します。
type JobHandler struct {
	runner JobRunner
	job    syncusecase.Job
}

// NewJobHandler は新しい JobHandler を作成します。
func NewJobHandler(runner JobRunner, job syncusecase.Job) *JobHandler {
	return &JobHandler{runner: runner, job: job}
}

// Trigger はジョブを同期的に実行し、結果をJSONで返します。
// 致命的な失敗（ユニバースが読めない等）は500、それ以外は200です。
// スケジューラが接続を切ってもジョブは継続し、実行時間の上限は Runner の ceiling が決めます。
func (h *JobHandler) Trigger(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	out, err := h.runner.Run(ctx, h.job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if out.Status == syncusecase.StatusSkipped {
		c.JSON(http.StatusOK, dto.JobResult{Status: out.Status, Message: out.Message})
		return
	}
	records := out.Records
	c.JSON(http.StatusOK, dto.JobResult{Status: syncusecase.StatusOK, Records: &records})
}

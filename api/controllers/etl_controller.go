/*
 * @module api/controllers/etl_controller
 * @description ETL运行控制器，提供手动触发、质量报告与运行历史查询接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 手动触发与定时触发互斥，已有运行在进行时返回冲突
 * @dependencies github.com/go-chi/render
 * @refs service/etl_run_service.go
 */

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"whatsapp-etl-service/service"
)

// EtlController ETL运行控制器
type EtlController struct {
	runService *service.EtlRunService
}

// NewEtlController 创建ETL运行控制器实例
func NewEtlController() *EtlController {
	return &EtlController{runService: service.GlobalEtlRunService}
}

// TriggerRun 手动触发一次ETL运行
// @Summary 触发ETL运行
// @Description 同步执行一次完整的抽取-转换-上载流程并返回运行摘要
// @Tags ETL
// @Produce json
// @Success 200 {object} APIResponse{data=models.EtlRun}
// @Failure 409 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /etl/run [post]
func (c *EtlController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.runService.Run(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			render.JSON(w, r, ConflictResponse("已有ETL运行正在进行", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("ETL运行失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("ETL运行完成", run))
}

// GetLastReport 获取最近一次运行的质量报告
// @Summary 获取最近质量报告
// @Description 返回最近一次成功运行产出的数据质量报告及摘要
// @Tags ETL
// @Produce json
// @Success 200 {object} APIResponse{data=models.DataQualityReport}
// @Failure 404 {object} APIResponse
// @Router /etl/last-report [get]
func (c *EtlController) GetLastReport(w http.ResponseWriter, r *http.Request) {
	report := c.runService.LastReport()
	if report == nil {
		render.JSON(w, r, NotFoundResponse("尚无质量报告，请先触发一次运行"))
		return
	}

	render.JSON(w, r, SuccessResponse("获取质量报告成功", map[string]interface{}{
		"report":  report,
		"summary": report.GetSummary(),
	}))
}

// ListRuns 获取运行历史
// @Summary 获取运行历史
// @Description 按开始时间倒序返回ETL运行记录
// @Tags ETL
// @Produce json
// @Param limit query int false "返回条数" default(20)
// @Success 200 {object} APIResponse{data=[]models.EtlRun}
// @Failure 500 {object} APIResponse
// @Router /etl/runs [get]
func (c *EtlController) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := c.runService.ListRuns(r.Context(), limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询运行历史失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取运行历史成功", runs))
}

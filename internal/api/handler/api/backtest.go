// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/api/job"
	"github.com/newthinker/stratbench/internal/api/response"
	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/storage/result"
)

// DefaultTimeout bounds a single run when none is configured.
const DefaultTimeout = 5 * time.Minute

// JobGauge receives the number of active jobs.
type JobGauge interface {
	SetJobsActive(count int)
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore   *job.Store
	backtester *backtest.Backtester
	history    result.Store
	defaults   Defaults
	timeout    time.Duration
	gauge      JobGauge
	logger     *zap.Logger
	running    sync.WaitGroup
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(
	jobStore *job.Store,
	backtester *backtest.Backtester,
	history result.Store,
	defaults Defaults,
	logger *zap.Logger,
) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{
		jobStore:   jobStore,
		backtester: backtester,
		history:    history,
		defaults:   defaults,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
}

// WithTimeout overrides the per-run timeout.
func (h *BacktestHandler) WithTimeout(d time.Duration) *BacktestHandler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// WithJobGauge reports active job counts to g.
func (h *BacktestHandler) WithJobGauge(g JobGauge) *BacktestHandler {
	h.gauge = g
	return h
}

func (h *BacktestHandler) decode(r *http.Request) (backtest.Request, error) {
	var body BacktestRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&body); err != nil {
		return backtest.Request{}, core.WrapError(core.ErrInvalidParams, err)
	}
	return body.ToRequest(h.defaults)
}

// Run executes a backtest synchronously and returns the result.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.backtester.Run(ctx, req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.remember(ctx, res)

	response.JSON(w, http.StatusOK, res)
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	// Resolve up front so unknown strategies fail the request, not the job
	if _, err := h.backtester.Resolve(r.Context(), req); err != nil {
		response.Fail(w, err)
		return
	}

	j := h.jobStore.Create("backtest")
	h.reportJobs()

	h.running.Add(1)
	go h.runBacktest(j.ID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runBacktest executes the backtest and updates job status.
func (h *BacktestHandler) runBacktest(jobID string, req backtest.Request) {
	defer h.running.Done()
	defer h.reportJobs()

	// Mark as running
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
		j.Progress = 10
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	res, err := h.backtester.Run(ctx, req)

	if err != nil {
		h.logger.Warn("backtest job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}
	h.remember(ctx, res)

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = res
	})
}

// Wait blocks until every started job has finished.
func (h *BacktestHandler) Wait() {
	h.running.Wait()
}

func (h *BacktestHandler) remember(ctx context.Context, res *backtest.Result) {
	if h.history == nil {
		return
	}
	if err := h.history.Save(ctx, res); err != nil {
		h.logger.Warn("saving backtest result", zap.String("id", res.ID), zap.Error(err))
	}
}

func (h *BacktestHandler) reportJobs() {
	if h.gauge != nil {
		h.gauge.SetJobsActive(h.jobStore.Active())
	}
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		detail := map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
		if j.Error.Cause != nil {
			detail["cause"] = j.Error.Cause.Error()
		}
		resp["error"] = detail
	}

	response.JSON(w, http.StatusOK, resp)
}

// History lists recent results, newest first. Trades and equity curves are
// left out; fetch a single result for those.
func (h *BacktestHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := result.ListFilter{
		Strategy:   q.Get("strategy"),
		Instrument: q.Get("instrument"),
		Limit:      queryInt(q.Get("limit"), 20),
		Offset:     queryInt(q.Get("offset"), 0),
	}

	results, err := h.history.List(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}
	total, err := h.history.Count(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	summaries := make([]backtest.Result, len(results))
	for i, res := range results {
		summaries[i] = *res
		summaries[i].Trades = nil
		summaries[i].EquityCurve = nil
	}
	response.List(w, summaries, total)
}

// GetResult returns one stored result in full.
func (h *BacktestHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.history.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// ExportTrades writes the trades of a stored result as CSV.
func (h *BacktestHandler) ExportTrades(w http.ResponseWriter, r *http.Request) {
	res, err := h.history.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades_`+res.ID+`.csv"`)
	if err := backtest.WriteTradesCSV(w, res.Trades); err != nil {
		h.logger.Warn("writing trades csv", zap.String("id", res.ID), zap.Error(err))
	}
}

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func asCoreError(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.Error{Code: "TIMEOUT", Message: "backtest timed out", Cause: err}
	}
	return &core.Error{Code: "INTERNAL_ERROR", Message: "backtest failed", Cause: err}
}

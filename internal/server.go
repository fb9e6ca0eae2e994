package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/taskforge-ai/taskforge/internal/config"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/orchestrator"
	"github.com/taskforge-ai/taskforge/internal/strategy"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
	"github.com/taskforge-ai/taskforge/pkg/clog"
)

type Server struct {
	server       *http.Server
	env          *config.Env
	orchestrator *orchestrator.Service
}

func NewServer(env *config.Env, orch *orchestrator.Service) *Server {
	return &Server{env: env, orchestrator: orch}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it (e.g. on shutdown
// signal) also cancels any handler still in flight.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.createTask)
			r.Get("/", s.listTasks)
			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", s.getTask)
				r.Delete("/", s.deleteTask)
				r.Post("/execute", s.executeTask)
				r.Get("/executions", s.listExecutions)
			})
		})
		r.Route("/executions/{executionID}", func(r chi.Router) {
			r.Get("/", s.getExecution)
			r.Post("/cancel", s.cancelExecution)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type createTaskRequest struct {
	OwnerID     string            `json:"owner_id"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type executeTaskRequest struct {
	Strategy string `json:"strategy,omitempty"`
}

type taskResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Description string            `json:"description"`
	Type        string            `json:"type,omitempty"`
	Complexity  string            `json:"complexity,omitempty"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type listTasksResponse struct {
	Tasks []*taskResponse `json:"tasks"`
	Total int             `json:"total"`
}

type executionResponse struct {
	ID           string            `json:"id"`
	TaskID       string            `json:"task_id"`
	Strategy     string            `json:"strategy"`
	Model        string            `json:"model,omitempty"`
	Attempt      int               `json:"attempt"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	TokensUsed   int               `json:"tokens_used"`
	CostUSD      float64           `json:"cost_usd"`
	Result       *execution.Result `json:"result,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

type listExecutionsResponse struct {
	Executions []*executionResponse `json:"executions"`
}

func toTaskResponse(t *task.Task) *taskResponse {
	return &taskResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Description: t.Description,
		Type:        string(t.Type),
		Complexity:  string(t.Complexity),
		Status:      string(t.Status),
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toExecutionResponse(e *execution.Execution) *executionResponse {
	return &executionResponse{
		ID:           e.ID,
		TaskID:       e.TaskID,
		Strategy:     e.Strategy,
		Model:        e.Model,
		Attempt:      e.Attempt,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		TokensUsed:   e.TokensUsed,
		CostUSD:      e.CostUSD,
		Result:       e.Result,
		CreatedAt:    e.CreatedAt,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
	}
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.orchestrator.CreateTask(ctx, req.OwnerID, req.Description, req.Metadata)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toTaskResponse(t))
	cerr.SetJSONResponseStatus(ctx, http.StatusCreated)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 50)
	offset := queryInt(q.Get("offset"), 0)
	tasks, total, err := s.orchestrator.ListTasks(ctx, q.Get("owner_id"), task.Status(q.Get("status")), limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	resp := &listTasksResponse{Tasks: make([]*taskResponse, len(tasks)), Total: total}
	for i, t := range tasks {
		resp.Tasks[i] = toTaskResponse(t)
	}
	cerr.SetJSONResponse(ctx, resp)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.orchestrator.GetTask(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toTaskResponse(t))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.orchestrator.DeleteTask(ctx, chi.URLParam(r, "taskID")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

func (s *Server) executeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req executeTaskRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
			return
		}
	}
	exec, err := s.orchestrator.ExecuteTask(ctx, chi.URLParam(r, "taskID"), strategy.Type(req.Strategy))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toExecutionResponse(exec))
	cerr.SetJSONResponseStatus(ctx, http.StatusAccepted)
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	execs, err := s.orchestrator.ListExecutions(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	resp := &listExecutionsResponse{Executions: make([]*executionResponse, len(execs))}
	for i, e := range execs {
		resp.Executions[i] = toExecutionResponse(e)
	}
	cerr.SetJSONResponse(ctx, resp)
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exec, err := s.orchestrator.GetExecution(ctx, chi.URLParam(r, "executionID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toExecutionResponse(exec))
}

func (s *Server) cancelExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exec, err := s.orchestrator.CancelExecution(ctx, chi.URLParam(r, "executionID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toExecutionResponse(exec))
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

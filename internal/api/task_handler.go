package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks. Supported query parameters: tags
// (comma-separated, any-of), status, priority, completed, limit, offset.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	query, err := parseTaskQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), p, query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := TaskListResponse{
		Tasks:  make([]TaskResponse, 0, len(tasks)),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(task))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), p, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    domain.Priority(req.Priority),
		Tags:        req.Tags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", "task_id", task.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), p, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Completed:   req.Completed,
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		in.Priority = &priority
	}
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			in.ClearDueDate = true
		} else {
			in.DueDate = req.DueDate.Value
		}
	}

	task, err := h.tasks.UpdateTask(r.Context(), p, taskID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), p, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /tasks/summary.
func (h *TaskHandler) Summary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	summary, err := h.tasks.Summary(r.Context(), p)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to summarize tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

func parseTaskQuery(r *http.Request) (service.TaskQuery, error) {
	limit, offset, err := parsePaging(r)
	if err != nil {
		return service.TaskQuery{}, err
	}
	query := service.TaskQuery{Limit: limit, Offset: offset}
	q := r.URL.Query()

	if raw := q.Get("tags"); raw != "" {
		query.Tags = domain.NormalizeTags(strings.Split(raw, ","))
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.TaskStatus(strings.ToLower(raw))
		if !status.Valid() {
			return service.TaskQuery{}, domain.ErrInvalidTaskStatus
		}
		query.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority := domain.Priority(strings.ToLower(raw))
		if !priority.Valid() {
			return service.TaskQuery{}, domain.ErrInvalidPriority
		}
		query.Priority = &priority
	}
	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return service.TaskQuery{}, domain.NewValidationError("completed", "must be true or false", domain.ErrValidation)
		}
		query.Completed = &completed
	}
	return query, nil
}

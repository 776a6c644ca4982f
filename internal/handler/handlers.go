// Package handler provides HTTP request handlers for the employees API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/devrev/employees-api/internal/converter"
	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/model"
)

// BannerMessage is returned by GET /.
const BannerMessage = "employees API ready"

// EmployeeService is the set of record operations the handlers call.
type EmployeeService interface {
	List(ctx context.Context) ([]model.Employee, error)
	Get(ctx context.Context, id int) (model.Employee, bool, error)
	Add(ctx context.Context, draft model.Draft) (int, error)
	Update(ctx context.Context, id int, patch model.Patch) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	service      EmployeeService
	httpToModel  *converter.HTTPToModel
	errorHandler *apierrors.Handler
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service EmployeeService, errorHandler *apierrors.Handler, logger *zap.Logger) *Handlers {
	return &Handlers{
		service:      service,
		httpToModel:  converter.NewHTTPToModel(),
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Root handles GET / requests.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, converter.Banner(BannerMessage))
}

// ListEmployees handles GET /employees requests.
func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, converter.EmployeeList(rows))
}

// GetEmployee handles GET /employees/{id} requests.
func (h *Handlers) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.httpToModel.EmployeeID(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	employee, found, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !found {
		h.errorHandler.HandleError(w, r, apierrors.EmployeeNotFound(id))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, employee)
}

// CreateEmployee handles POST /employees requests.
func (h *Handlers) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	draft, err := h.httpToModel.CreateEmployeeRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	id, err := h.service.Add(r.Context(), draft)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, converter.Created(id))
}

// ReplaceEmployee handles PUT /employees/{id} requests.
func (h *Handlers) ReplaceEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.httpToModel.EmployeeID(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	employee, err := h.httpToModel.ReplaceEmployeeRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if employee.ID != id {
		h.errorHandler.HandleError(w, r, apierrors.IDMismatch(id, employee.ID))
		return
	}

	h.applyUpdate(w, r, id, model.PatchFrom(employee), converter.MessageReplaced)
}

// UpdateEmployee handles PATCH /employees/{id} requests.
func (h *Handlers) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.httpToModel.EmployeeID(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	patch, err := h.httpToModel.UpdateEmployeeRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if patch.IsEmpty() {
		h.errorHandler.HandleError(w, r, apierrors.NoFields())
		return
	}

	h.applyUpdate(w, r, id, patch, converter.MessageUpdated)
}

// DeleteEmployee handles DELETE /employees/{id} requests.
func (h *Handlers) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.httpToModel.EmployeeID(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !deleted {
		h.errorHandler.HandleError(w, r, apierrors.EmployeeNotFound(id))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, converter.OK(converter.MessageDeleted))
}

func (h *Handlers) applyUpdate(w http.ResponseWriter, r *http.Request, id int, patch model.Patch, message string) {
	found, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !found {
		h.errorHandler.HandleError(w, r, apierrors.EmployeeNotFound(id))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, converter.OK(message))
}

// writeJSONResponse writes a JSON response to the HTTP response writer.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// Package converter translates between HTTP payloads and the employee model.
package converter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/model"
)

// HTTPToModel handles conversion of HTTP requests to model values.
type HTTPToModel struct{}

// NewHTTPToModel creates a new HTTPToModel converter.
func NewHTTPToModel() *HTTPToModel {
	return &HTTPToModel{}
}

// EmployeeHTTPRequest is the JSON body accepted by POST, PUT and PATCH.
// Absent and null fields both decode to nil.
type EmployeeHTTPRequest struct {
	ID               *int     `json:"ID"`
	Name             *string  `json:"Name"`
	TimeOffBalance   *float64 `json:"TimeOffBalance"`
	Job              *string  `json:"Job"`
	Address          *string  `json:"Address"`
	RequestedTimeOff *int     `json:"RequestedTimeOff"`
}

// EmployeeID parses the {id} path variable.
func (c *HTTPToModel) EmployeeID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidRequest(fmt.Sprintf("employee id must be an integer, got %q", raw), nil)
	}
	return id, nil
}

// CreateEmployeeRequest converts a POST body into a draft. ID is optional,
// every other field is required.
func (c *HTTPToModel) CreateEmployeeRequest(r *http.Request) (model.Draft, error) {
	req, err := decode(r)
	if err != nil {
		return model.Draft{}, err
	}
	if err := req.requireFields(); err != nil {
		return model.Draft{}, err
	}
	return model.Draft{
		ID:               req.ID,
		Name:             *req.Name,
		TimeOffBalance:   *req.TimeOffBalance,
		Job:              *req.Job,
		Address:          *req.Address,
		RequestedTimeOff: *req.RequestedTimeOff,
	}, nil
}

// ReplaceEmployeeRequest converts a PUT body into a full record. The ID is
// required; comparing it with the path is left to the caller.
func (c *HTTPToModel) ReplaceEmployeeRequest(r *http.Request) (model.Employee, error) {
	req, err := decode(r)
	if err != nil {
		return model.Employee{}, err
	}
	if req.ID == nil {
		return model.Employee{}, required(model.ColumnID)
	}
	if err := req.requireFields(); err != nil {
		return model.Employee{}, err
	}
	return model.Employee{
		ID:               *req.ID,
		Name:             *req.Name,
		TimeOffBalance:   *req.TimeOffBalance,
		Job:              *req.Job,
		Address:          *req.Address,
		RequestedTimeOff: *req.RequestedTimeOff,
	}, nil
}

// UpdateEmployeeRequest converts a PATCH body into a patch. An ID in the
// body is ignored; the result may be empty.
func (c *HTTPToModel) UpdateEmployeeRequest(r *http.Request) (model.Patch, error) {
	req, err := decode(r)
	if err != nil {
		return model.Patch{}, err
	}
	return model.Patch{
		Name:             req.Name,
		TimeOffBalance:   req.TimeOffBalance,
		Job:              req.Job,
		Address:          req.Address,
		RequestedTimeOff: req.RequestedTimeOff,
	}, nil
}

func decode(r *http.Request) (*EmployeeHTTPRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierrors.InvalidRequest("failed to read request body", err)
	}
	defer r.Body.Close()

	var req EmployeeHTTPRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apierrors.InvalidRequest("failed to parse request body", err)
	}
	return &req, nil
}

func (req *EmployeeHTTPRequest) requireFields() error {
	switch {
	case req.Name == nil:
		return required(model.ColumnName)
	case req.TimeOffBalance == nil:
		return required(model.ColumnTimeOffBalance)
	case req.Job == nil:
		return required(model.ColumnJob)
	case req.Address == nil:
		return required(model.ColumnAddress)
	case req.RequestedTimeOff == nil:
		return required(model.ColumnRequestedTimeOff)
	}
	return nil
}

func required(column string) error {
	return apierrors.InvalidRequest(column+" is required", nil).WithDetail("field", column)
}

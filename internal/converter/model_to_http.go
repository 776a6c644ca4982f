package converter

import "github.com/devrev/employees-api/internal/model"

const statusOK = "ok"

// Success messages returned by the mutating endpoints.
const (
	MessageReplaced = "employee replaced"
	MessageUpdated  = "employee updated"
	MessageDeleted  = "employee deleted"
)

// BannerHTTPResponse is returned by the root endpoint.
type BannerHTTPResponse struct {
	Message string `json:"message"`
}

// CreateEmployeeHTTPResponse represents the HTTP response for POST /employees.
type CreateEmployeeHTTPResponse struct {
	Status string `json:"status"`
	ID     int    `json:"ID"`
}

// StatusHTTPResponse is the body of successful PUT, PATCH and DELETE calls.
type StatusHTTPResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Banner builds the root endpoint response.
func Banner(message string) *BannerHTTPResponse {
	return &BannerHTTPResponse{Message: message}
}

// Created builds the response for a newly added employee.
func Created(id int) *CreateEmployeeHTTPResponse {
	return &CreateEmployeeHTTPResponse{Status: statusOK, ID: id}
}

// OK builds a success response carrying message.
func OK(message string) *StatusHTTPResponse {
	return &StatusHTTPResponse{Status: statusOK, Message: message}
}

// EmployeeList never returns nil so that an empty table encodes as [].
func EmployeeList(rows []model.Employee) []model.Employee {
	if rows == nil {
		return []model.Employee{}
	}
	return rows
}

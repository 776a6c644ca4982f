package model

// Column names of the persisted spreadsheet, in header order.
const (
	ColumnID               = "ID"
	ColumnName             = "Name"
	ColumnTimeOffBalance   = "TimeOffBalance"
	ColumnJob              = "Job"
	ColumnAddress          = "Address"
	ColumnRequestedTimeOff = "RequestedTimeOff"
)

// Columns is the fixed header row of the employee spreadsheet.
var Columns = []string{
	ColumnID,
	ColumnName,
	ColumnTimeOffBalance,
	ColumnJob,
	ColumnAddress,
	ColumnRequestedTimeOff,
}

// Employee is a single persisted employee record
type Employee struct {
	ID               int     `json:"ID"`
	Name             string  `json:"Name"`
	TimeOffBalance   float64 `json:"TimeOffBalance"`
	Job              string  `json:"Job"`
	Address          string  `json:"Address"`
	RequestedTimeOff int     `json:"RequestedTimeOff"`
}

// Draft is an employee about to be added. A nil ID asks the store to assign one.
type Draft struct {
	ID               *int
	Name             string
	TimeOffBalance   float64
	Job              string
	Address          string
	RequestedTimeOff int
}

// Employee converts the draft into a record with the given identifier
func (d Draft) Employee(id int) Employee {
	return Employee{
		ID:               id,
		Name:             d.Name,
		TimeOffBalance:   d.TimeOffBalance,
		Job:              d.Job,
		Address:          d.Address,
		RequestedTimeOff: d.RequestedTimeOff,
	}
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Name             *string
	TimeOffBalance   *float64
	Job              *string
	Address          *string
	RequestedTimeOff *int
}

// IsEmpty reports whether the patch carries no field at all
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.TimeOffBalance == nil && p.Job == nil &&
		p.Address == nil && p.RequestedTimeOff == nil
}

// Apply overwrites every field present in the patch on e
func (p Patch) Apply(e *Employee) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.TimeOffBalance != nil {
		e.TimeOffBalance = *p.TimeOffBalance
	}
	if p.Job != nil {
		e.Job = *p.Job
	}
	if p.Address != nil {
		e.Address = *p.Address
	}
	if p.RequestedTimeOff != nil {
		e.RequestedTimeOff = *p.RequestedTimeOff
	}
}

// PatchFrom builds a patch that replaces every non-identity field of e
func PatchFrom(e Employee) Patch {
	return Patch{
		Name:             &e.Name,
		TimeOffBalance:   &e.TimeOffBalance,
		Job:              &e.Job,
		Address:          &e.Address,
		RequestedTimeOff: &e.RequestedTimeOff,
	}
}

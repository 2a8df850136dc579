package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ReportRequest is the JSON body of a report generation request. Pointer
// fields distinguish a missing value from an empty one.
type ReportRequest struct {
	Project *Project `json:"project"`
	Cameras Cameras  `json:"cameras"`
	NVR     *NVR     `json:"nvr"`
	Signage *Signage `json:"signage"`
	Closure *Closure `json:"closure"`
}

type Project struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Date        *string `json:"date"`
	Dataset     *string `json:"dataset"`
	MapURL      *string `json:"mapUrl"`
	Description *string `json:"description"`
}

type Camera struct {
	Number   *int    `json:"number"`
	Category *string `json:"category"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Cameras decodes element by element so that type errors carry the index of
// the offending camera.
type Cameras []Camera

func (c *Cameras) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return TypeError([]string{"body", "cameras"}, typeErr)
		}
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}

	cameras := make(Cameras, len(raw))
	for i, item := range raw {
		if err := json.Unmarshal(item, &cameras[i]); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return TypeError([]string{"body", "cameras", strconv.Itoa(i)}, typeErr)
			}
			return err
		}
	}
	*c = cameras
	return nil
}

type NVR struct {
	Type    *string `json:"type"`
	Address *string `json:"address"`
	Notes   *string `json:"notes,omitempty"`
}

type Signage struct {
	ProtectedNeighborhood *int `json:"protectedNeighborhood"`
	Residential           *int `json:"residential"`
}

type Closure struct {
	Circle       *string `json:"circle"`
	ApprovalDate *string `json:"approvalDate"`
}

// FieldError points at one invalid field of the request.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Loc, e.Msg)
}

// TypeError converts a JSON type mismatch found under prefix into a field
// error whose location ends with the mismatched field.
func TypeError(prefix []string, err *json.UnmarshalTypeError) FieldError {
	loc := append([]string(nil), prefix...)
	if err.Field != "" {
		loc = append(loc, strings.Split(err.Field, ".")...)
	}
	return FieldError{
		Loc:  loc,
		Msg:  fmt.Sprintf("value is not a valid %s", err.Type),
		Type: "type_error",
	}
}

// ValidationErrorResponse is returned with 422 when the body is rejected.
type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}

// ErrorResponse is returned with 5xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Validate reports every missing required field. Cameras may be empty, and
// the NVR notes and camera image URL are optional.
func (r ReportRequest) Validate() []FieldError {
	var v validator

	if r.Project == nil {
		v.missing("body", "project")
	} else {
		v.requireString(r.Project.Name, "body", "project", "name")
		v.requireString(r.Project.Location, "body", "project", "location")
		v.requireString(r.Project.Date, "body", "project", "date")
		v.requireString(r.Project.Dataset, "body", "project", "dataset")
		v.requireString(r.Project.MapURL, "body", "project", "mapUrl")
		v.requireString(r.Project.Description, "body", "project", "description")
	}

	if r.Cameras == nil {
		v.missing("body", "cameras")
	}
	for i, c := range r.Cameras {
		idx := strconv.Itoa(i)
		v.requireInt(c.Number, "body", "cameras", idx, "number")
		v.requireString(c.Category, "body", "cameras", idx, "category")
		v.requireString(c.Location, "body", "cameras", idx, "location")
		v.requireString(c.Notes, "body", "cameras", idx, "notes")
	}

	if r.NVR == nil {
		v.missing("body", "nvr")
	} else {
		v.requireString(r.NVR.Type, "body", "nvr", "type")
		v.requireString(r.NVR.Address, "body", "nvr", "address")
	}

	if r.Signage == nil {
		v.missing("body", "signage")
	} else {
		v.requireInt(r.Signage.ProtectedNeighborhood, "body", "signage", "protectedNeighborhood")
		v.requireInt(r.Signage.Residential, "body", "signage", "residential")
	}

	if r.Closure == nil {
		v.missing("body", "closure")
	} else {
		v.requireString(r.Closure.Circle, "body", "closure", "circle")
		v.requireString(r.Closure.ApprovalDate, "body", "closure", "approvalDate")
	}

	return v.errs
}

type validator struct {
	errs []FieldError
}

func (v *validator) missing(loc ...string) {
	v.errs = append(v.errs, FieldError{Loc: loc, Msg: "field required", Type: "value_error.missing"})
}

func (v *validator) requireString(s *string, loc ...string) {
	if s == nil {
		v.missing(loc...)
	}
}

func (v *validator) requireInt(n *int, loc ...string) {
	if n == nil {
		v.missing(loc...)
	}
}

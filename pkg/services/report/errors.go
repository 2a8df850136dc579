package report

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is returned when the template file is missing or unreadable.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateInvalid is returned when the template is not a usable presentation.
	ErrTemplateInvalid = errors.New("template is not a valid presentation")
	// ErrSerialize is returned when the instantiated deck cannot be written.
	ErrSerialize = errors.New("failed to write report")
)

type Stage string

const (
	StageClone Stage = "clone"
	StageFetch Stage = "fetch"
	StageEmbed Stage = "embed"
)

// RecordError is a non-fatal problem with one record slide. The report is
// still produced; the slide is degraded.
type RecordError struct {
	Index  int
	Number int
	Stage  Stage
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("camera %d (record %d) %s: %v", e.Number, e.Index, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

package domain

// ReportInput is everything needed to instantiate one report deck.
// Cameras keep their input order; that order decides slide order.
type ReportInput struct {
	Project Project
	Cameras []Camera
	NVR     NVR
	Signage Signage
	Closure Closure
}

type Project struct {
	Name     string
	Location string
	Date     string // opaque, never parsed
	Dataset  string
	// MapURL is accepted but not rendered yet.
	MapURL      string
	Description string
}

// Camera is one surveyed camera; it becomes one record-detail slide.
type Camera struct {
	Number   int
	Category string
	Location string
	Notes    string
	// ImageURL is optional; empty means no picture is embedded.
	ImageURL string
}

// HasImage reports whether an image should be fetched for the camera.
func (c Camera) HasImage() bool {
	return c.ImageURL != ""
}

type NVR struct {
	Type    string
	Address string
	Notes   string
}

// Signage holds sign counts; values are not range checked.
type Signage struct {
	ProtectedNeighborhood int
	Residential           int
}

type Closure struct {
	Circle       string
	ApprovalDate string
}

package adapters

import (
	"github.com/de-tools/report-deck/pkg/models/api"
	"github.com/de-tools/report-deck/pkg/models/domain"
)

// MapReportRequestApiToDomain converts a validated request. Missing optional
// values become empty strings; the NVR notes default to "".
func MapReportRequestApiToDomain(r api.ReportRequest) domain.ReportInput {
	in := domain.ReportInput{
		Cameras: make([]domain.Camera, 0, len(r.Cameras)),
	}
	if r.Project != nil {
		in.Project = domain.Project{
			Name:        str(r.Project.Name),
			Location:    str(r.Project.Location),
			Date:        str(r.Project.Date),
			Dataset:     str(r.Project.Dataset),
			MapURL:      str(r.Project.MapURL),
			Description: str(r.Project.Description),
		}
	}
	for _, c := range r.Cameras {
		in.Cameras = append(in.Cameras, MapCameraApiToDomain(c))
	}
	if r.NVR != nil {
		in.NVR = domain.NVR{
			Type:    str(r.NVR.Type),
			Address: str(r.NVR.Address),
			Notes:   str(r.NVR.Notes),
		}
	}
	if r.Signage != nil {
		in.Signage = domain.Signage{
			ProtectedNeighborhood: num(r.Signage.ProtectedNeighborhood),
			Residential:           num(r.Signage.Residential),
		}
	}
	if r.Closure != nil {
		in.Closure = domain.Closure{
			Circle:       str(r.Closure.Circle),
			ApprovalDate: str(r.Closure.ApprovalDate),
		}
	}
	return in
}

func MapCameraApiToDomain(c api.Camera) domain.Camera {
	return domain.Camera{
		Number:   num(c.Number),
		Category: str(c.Category),
		Location: str(c.Location),
		Notes:    str(c.Notes),
		ImageURL: str(c.ImageURL),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

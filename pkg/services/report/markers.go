package report

import (
	"fmt"
	"strings"

	"github.com/de-tools/report-deck/pkg/models/domain"
)

// Placeholder markers are exact, case-sensitive literals.
const (
	MarkerProjectName = "{{nombre_proyecto}}"
	MarkerLocation    = "{{ubicacion}}"
	MarkerDate        = "{{fecha}}"
	MarkerDataset     = "{{nombre_csv}}"
	MarkerStreet      = "{{calle_principal}}"
	MarkerDescription = "{{descripcion}}"

	MarkerSignageProtected   = "{{carteles_bp}}"
	MarkerSignageResidential = "{{carteles_dom}}"
	MarkerNVRType            = "{{nvr_tipo}}"
	MarkerNVRAddress         = "{{nvr_direccion}}"
	MarkerNVRNotes           = "{{observaciones_nvr}}"
	MarkerClosureCircle      = "{{circulo}}"
	MarkerClosureDate        = "{{fecha_aprobacion}}"

	MarkerCameraDetail   = "{{detalle_camara}}"
	MarkerCameraCategory = "{{tipo_camara}}"
	MarkerCameraLocation = "{{ubicacion_camara}}"
	MarkerCameraNotes    = "{{observaciones_camara}}"

	// SentinelMarker identifies the prototype slide. It doubles as the
	// record detail label marker.
	SentinelMarker = MarkerCameraDetail
)

type replacement struct {
	marker string
	value  any
}

// projectReplacements apply to the header slides only.
func projectReplacements(p domain.Project) []replacement {
	return []replacement{
		{MarkerProjectName, p.Name},
		{MarkerLocation, p.Location},
		{MarkerDate, p.Date},
		{MarkerDataset, p.Dataset},
		{MarkerStreet, p.Location},
		{MarkerDescription, p.Description},
	}
}

// aggregateReplacements apply to every slide.
func aggregateReplacements(in domain.ReportInput) []replacement {
	return []replacement{
		{MarkerSignageProtected, in.Signage.ProtectedNeighborhood},
		{MarkerSignageResidential, in.Signage.Residential},
		{MarkerNVRType, in.NVR.Type},
		{MarkerNVRAddress, in.NVR.Address},
		{MarkerNVRNotes, in.NVR.Notes},
		{MarkerClosureCircle, in.Closure.Circle},
		{MarkerClosureDate, in.Closure.ApprovalDate},
	}
}

func cameraReplacements(c domain.Camera) []replacement {
	return []replacement{
		{MarkerCameraDetail, DetailLabel(c)},
		{MarkerCameraCategory, c.Category},
		{MarkerCameraLocation, c.Location},
		{MarkerCameraNotes, c.Notes},
	}
}

// DetailLabel renders the record heading, e.g. "3. DOME".
func DetailLabel(c domain.Camera) string {
	return fmt.Sprintf("%d. %s", c.Number, strings.ToUpper(c.Category))
}

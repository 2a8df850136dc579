package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/report-deck/pkg/models/api"
	"github.com/de-tools/report-deck/pkg/pptx"
	"github.com/de-tools/report-deck/pkg/pptx/pptxtest"
	"github.com/de-tools/report-deck/pkg/services/fetch"
	"github.com/de-tools/report-deck/pkg/services/report"
)

func newTestServer(t *testing.T, template, outputDir string) *httptest.Server {
	t.Helper()
	generator := report.NewGenerator(
		report.Config{TemplatePath: template, OutputDir: outputDir},
		fetch.NewFetcher(fetch.Config{TempDir: t.TempDir()}),
	)
	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Generator: generator,
			Logger:    zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path, err := pptxtest.WriteFile(t.TempDir(), "plantilla.pptx",
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Title", report.MarkerProjectName)}},
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Where", report.MarkerStreet)}},
		pptxtest.Slide{Boxes: []pptxtest.TextBox{
			pptxtest.Box("Detail", report.SentinelMarker),
			pptxtest.Box("Location", report.MarkerCameraLocation),
		}},
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Closure", report.MarkerClosureCircle)}},
	)
	require.NoError(t, err)
	return path
}

func requestBody(imageURL string) string {
	return `{
  "project": {"name": "Plaza", "location": "Centro 123", "date": "2024-05-01", "dataset": "a.csv", "mapUrl": "", "description": "d"},
  "cameras": [
    {"number": 1, "category": "dome", "location": "Entrada", "notes": "", "imageUrl": "` + imageURL + `"},
    {"number": 2, "category": "bullet", "location": "Patio", "notes": ""}
  ],
  "nvr": {"type": "NVR-8", "address": "Sala"},
  "signage": {"protectedNeighborhood": 1, "residential": 2},
  "closure": {"circle": "C1", "approvalDate": "2024-06-01"}
}`
}

func TestWebAPI_GenerateReport(t *testing.T) {
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pptxtest.PNG(30, 30))
	}))
	defer images.Close()
	outputDir := t.TempDir()
	srv := newTestServer(t, writeTemplate(t), outputDir)

	for _, path := range []string{"/api/v1/reports", "/generar-ppt"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(requestBody(images.URL+"/cam.png")))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, `attachment; filename="informe_generado.pptx"`, resp.Header.Get("Content-Disposition"))
			assert.Equal(t, "0", resp.Header.Get("X-Report-Diagnostics"))

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			pres, err := pptx.Read(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)

			slides := pres.Slides()
			require.Len(t, slides, 5)
			assert.Equal(t, "Plaza", slides[0].Text())
			assert.Equal(t, "Centro 123", slides[1].Text())
			assert.Equal(t, "1. DOME\nEntrada", slides[2].Text())
			assert.Equal(t, "2. BULLET\nPatio", slides[3].Text())
			assert.Equal(t, "C1", slides[4].Text())
			assert.Len(t, slides[2].Pictures(), 1)
			assert.Empty(t, slides[3].Pictures())
		})
	}

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "generated artifacts are removed after streaming")
}

func TestWebAPI_ValidationError(t *testing.T) {
	srv := newTestServer(t, writeTemplate(t), t.TempDir())

	resp, err := http.Post(srv.URL+"/api/v1/reports", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body api.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Detail, 5)
}

func TestWebAPI_MissingTemplate(t *testing.T) {
	srv := newTestServer(t, "/nonexistent/plantilla.pptx", t.TempDir())

	resp, err := http.Post(srv.URL+"/api/v1/reports", "application/json", strings.NewReader(requestBody("")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Detail, report.ErrTemplateNotFound.Error())
}

func TestWebAPI_Ping(t *testing.T) {
	srv := newTestServer(t, writeTemplate(t), t.TempDir())

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebAPI_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, writeTemplate(t), t.TempDir())

	resp, err := http.Get(srv.URL + "/api/v1/reports")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

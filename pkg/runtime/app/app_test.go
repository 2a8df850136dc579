package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/report-deck/pkg/models/domain"
	"github.com/de-tools/report-deck/pkg/pptx/pptxtest"
	"github.com/de-tools/report-deck/pkg/services/config"
	"github.com/de-tools/report-deck/pkg/services/report"
)

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	template, err := pptxtest.WriteFile(t.TempDir(), "plantilla.pptx",
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Detail", report.SentinelMarker)}},
	)
	require.NoError(t, err)
	cfg.Template.Path = template
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestBuild(t *testing.T) {
	isolateAWS(t)
	cfg := loadConfig(t)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	a, err := Build(ctx, cfg)
	require.NoError(t, err)

	assert.Nil(t, a.Archiver)
	res, err := a.Generator.Generate(ctx, domain.ReportInput{
		Cameras: []domain.Camera{{Number: 1, Category: "dome"}},
	})
	require.NoError(t, err)
	assert.Equal(t, cfg.Output.Dir, filepath.Dir(res.Path))
	assert.Equal(t, 1, res.RecordSlides)
}

func TestBuild_WithArchive(t *testing.T) {
	isolateAWS(t)
	cfg := loadConfig(t)
	cfg.Archive.Bucket = "reports"
	cfg.Archive.Prefix = "obras"

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	require.NotNil(t, a.Archiver)
	assert.Equal(t, "obras/informe.pptx", a.Archiver.Key("informe.pptx"))
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger(config.LogConfig{Level: "debug"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(config.LogConfig{Level: "nonsense"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(config.LogConfig{}).GetLevel())
}

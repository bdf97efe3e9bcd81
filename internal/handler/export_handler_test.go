package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

type exportServiceMock struct {
	job        *dto.ExportJobResponse
	enqueueErr error
	status     *dto.ExportJobResponse
	statusErr  error
	relPath    string
	parseErr   error
	openPath   string
}

func (m *exportServiceMock) Enqueue(context.Context, dto.ExportTimetableRequest) (*dto.ExportJobResponse, error) {
	return m.job, m.enqueueErr
}

func (m *exportServiceMock) Status(string) (*dto.ExportJobResponse, error) {
	return m.status, m.statusErr
}

func (m *exportServiceMock) ParseToken(string, bool) (string, string, time.Time, error) {
	return "job-1", m.relPath, time.Now().Add(time.Minute), m.parseErr
}

func (m *exportServiceMock) Open(string) (*os.File, error) {
	return os.Open(m.openPath)
}

func TestExportHandlerCreate(t *testing.T) {
	mock := &exportServiceMock{job: &dto.ExportJobResponse{JobID: "job-1", Status: "queued"}}
	h := NewExportHandler(mock)

	c, w := testContext(t, http.MethodPost, "/timetable/export", dto.ExportTimetableRequest{
		ClassName:  "3A",
		SchoolYear: "2025-2026",
		Format:     dto.ExportFormatCSV,
	})
	h.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestExportHandlerStatusNotFound(t *testing.T) {
	mock := &exportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "export job missing")}
	h := NewExportHandler(mock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/export/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "jobId", Value: "missing"}}

	h.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timetable.csv")
	require.NoError(t, os.WriteFile(path, []byte("Time,Monday\n09:00-09:30,Math\n"), 0o644))

	mock := &exportServiceMock{relPath: "timetable.csv", openPath: path}
	h := NewExportHandler(mock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/export/some-token", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "some-token"}}

	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Contains(t, w.Body.String(), "Math")
}

func TestExportHandlerDownloadBadToken(t *testing.T) {
	mock := &exportServiceMock{parseErr: assert.AnError}
	h := NewExportHandler(mock)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/export/tampered", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "tampered"}}

	h.Download(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

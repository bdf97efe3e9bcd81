package dto

// Export formats supported by the timetable export pipeline.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportTimetableRequest asks for a rendered copy of a persisted template.
type ExportTimetableRequest struct {
	ClassName  string `json:"className" validate:"required"`
	SchoolYear string `json:"schoolYear" validate:"required"`
	Format     string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports export job progress and, once finished, the
// signed download URL.
type ExportJobResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

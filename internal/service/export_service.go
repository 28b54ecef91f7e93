package service

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/pkg/export"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

// BackupVersion tags the backup envelope format.
const BackupVersion = "1.0"

// exportTimeLayout renders timestamps the way the ward staff read them.
const exportTimeLayout = "02/01/2006"

// patientCSVHeaders fixes the column set and order of tabular exports.
var patientCSVHeaders = []string{
	"Tên",
	"Năm sinh",
	"MSBN",
	"Số phòng",
	"Lý do vào viện",
	"Chẩn đoán",
	"Tình trạng",
	"Ghi chú",
	"Hướng điều trị",
	"Ngày tạo",
	"Ngày cập nhật",
	"Ngày ra viện",
}

// ExportService renders the collection into its interchange formats: CSV
// and PDF for printing, JSON for archival, and the versioned backup
// envelope for restore. It also parses the two inbound formats, rejecting
// what it cannot trust.
type ExportService struct {
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service.
func NewExportService(logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// BuildDataset maps patients onto the fixed Vietnamese column set.
func (s *ExportService) BuildDataset(patients []models.Patient) export.Dataset {
	rows := make([]map[string]string, 0, len(patients))
	for i := range patients {
		rows = append(rows, patientRow(&patients[i]))
	}
	return export.Dataset{Headers: patientCSVHeaders, Rows: rows}
}

// RenderCSV produces the CSV export.
func (s *ExportService) RenderCSV(patients []models.Patient) ([]byte, error) {
	data, err := s.csv.Render(s.BuildDataset(patients))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
	}
	return data, nil
}

// RenderPDF produces the printable ward report.
func (s *ExportService) RenderPDF(patients []models.Patient, title string) ([]byte, error) {
	data, err := s.pdf.Render(s.BuildDataset(patients), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
	}
	return data, nil
}

// RenderJSON produces the raw JSON export of the collection.
func (s *ExportService) RenderJSON(patients []models.Patient) ([]byte, error) {
	data, err := json.MarshalIndent(patients, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
	}
	return data, nil
}

// BuildBackup wraps the collection in the versioned envelope with its
// summary counts.
func (s *ExportService) BuildBackup(patients []models.Patient) models.Backup {
	active := 0
	discharged := 0
	for i := range patients {
		if patients[i].Status == models.StatusDischarged {
			discharged++
		} else {
			active++
		}
	}
	return models.Backup{
		Version:   BackupVersion,
		Timestamp: s.now(),
		Data:      models.ClonePatients(patients),
		Metadata: models.BackupMetadata{
			TotalPatients:      len(patients),
			ActivePatients:     active,
			DischargedPatients: discharged,
		},
	}
}

// ParseBackup validates a restore payload. Anything that is not a
// well-formed envelope with a data array is rejected wholesale.
func (s *ExportService) ParseBackup(raw []byte) ([]models.Patient, error) {
	var backup models.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportFormat.Code, appErrors.ErrImportFormat.Status, models.MsgBackupInvalid)
	}
	if backup.Version == "" || backup.Data == nil {
		return nil, appErrors.Clone(appErrors.ErrImportFormat, models.MsgBackupInvalid)
	}
	return backup.Data, nil
}

// ParseImport parses an uploaded JSON array of patients. A payload that is
// not an array fails wholesale; individual records missing a name or a
// patient code are dropped and counted, the rest survive.
func (s *ExportService) ParseImport(raw []byte) ([]models.Patient, int, error) {
	var incoming []models.Patient
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrImportFormat.Code, appErrors.ErrImportFormat.Status, models.MsgImportInvalid)
	}

	valid := make([]models.Patient, 0, len(incoming))
	for i := range incoming {
		record := importRecord{
			Name:        strings.TrimSpace(incoming[i].Name),
			PatientCode: strings.TrimSpace(incoming[i].PatientCode),
		}
		if err := s.validate.Struct(record); err != nil {
			continue
		}
		valid = append(valid, incoming[i])
	}

	dropped := len(incoming) - len(valid)
	if dropped > 0 {
		s.logger.Warn("import dropped invalid records",
			zap.Int("received", len(incoming)),
			zap.Int("dropped", dropped))
	}
	return valid, dropped, nil
}

// importRecord is the minimal shape a record must carry to survive import.
type importRecord struct {
	Name        string `validate:"required"`
	PatientCode string `validate:"required"`
}

func patientRow(p *models.Patient) map[string]string {
	treatments := make([]string, 0, len(p.TreatmentOptions))
	for _, option := range p.TreatmentOptions {
		treatments = append(treatments, option.Label())
	}

	row := map[string]string{
		"Tên":              p.Name,
		"Năm sinh":         formatBirthYear(p.BirthYear),
		"MSBN":             p.PatientCode,
		"Số phòng":         p.RoomNumber,
		"Lý do vào viện":   p.Reason,
		"Chẩn đoán":        p.Diagnosis,
		"Tình trạng":       p.Status.Label(),
		"Ghi chú":          p.Notes,
		"Hướng điều trị":   strings.Join(treatments, "; "),
		"Ngày tạo":         formatExportTime(&p.CreatedAt),
		"Ngày cập nhật":    formatExportTime(&p.UpdatedAt),
		"Ngày ra viện":     formatExportTime(p.DischargedAt),
	}
	return row
}

func formatBirthYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func formatExportTime(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Format(exportTimeLayout)
}

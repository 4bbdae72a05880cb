package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
	"github.com/aplabs-bh/ocr-invoice-extraction/mapping"
)

// BatchService runs a set of uploaded documents through the extraction
// pipeline as one run. Every document is an independent unit of work: a
// failure marks its row and the run moves on.
type BatchService struct {
	extractor       *ExtractionService
	defaultCurrency string
	maxFileSize     int64
	logger          *zap.SugaredLogger
}

func NewBatchService(extractor *ExtractionService, defaultCurrency string, maxFileSize int64, logger *zap.SugaredLogger) *BatchService {
	return &BatchService{
		extractor:       extractor,
		defaultCurrency: defaultCurrency,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

// runLog accumulates the operator-facing timestamped log of a batch run.
type runLog struct {
	lines []string
}

func (l *runLog) appendf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), line))
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseFiles processes every uploaded file, normalizes the parsed rows and
// derives the run status from the totals.
func (s *BatchService) ParseFiles(ctx context.Context, files []*multipart.FileHeader, meta dto.UploadMetadata) *dto.BatchResponse {
	runID := uuid.New().String()
	cache := NewRunCache()
	log := &runLog{}

	dupRule := meta.DuplicateRule
	if dupRule == "" {
		dupRule = DupRuleSupplierBillNoDate
	}

	perDoc := make(map[string]dto.DocumentMeta, len(meta.Documents))
	for _, d := range meta.Documents {
		perDoc[d.Filename] = d
	}

	s.logger.Infow("batch parse started", "run_id", runID, "files", len(files))

	var totals dto.BatchTotals
	rows := make([]dto.BatchRow, 0, len(files))
	for _, fh := range files {
		totals.Files++

		hint := perDoc[fh.Filename].Supplier
		if hint == "" {
			hint = meta.Supplier
		}

		log.appendf("File: %s", fh.Filename)
		row := s.parseOne(ctx, fh, hint, dupRule, cache, log)
		if row.Status == dto.RowStatusParsed {
			totals.Parsed++
			totals.Ready++
		} else {
			totals.Failed++
		}
		rows = append(rows, row)
	}

	status := runStatus(totals)
	log.appendf("Totals: files=%d, parsed=%d, ready=%d, failed=%d",
		totals.Files, totals.Parsed, totals.Ready, totals.Failed)

	s.logger.Infow("batch parse complete",
		"run_id", runID,
		"files", totals.Files,
		"parsed", totals.Parsed,
		"ready", totals.Ready,
		"failed", totals.Failed,
		"status", status,
	)

	return &dto.BatchResponse{
		RunID:       runID,
		Status:      status,
		Totals:      totals,
		Rows:        rows,
		Log:         log.lines,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
}

// parseOne handles one document end to end. Panics are contained here so a
// pathological document cannot take the rest of the run down with it.
func (s *BatchService) parseOne(ctx context.Context, fh *multipart.FileHeader, supplierHint, dupRule string, cache *RunCache, log *runLog) (row dto.BatchRow) {
	row = dto.BatchRow{
		Filename: fh.Filename,
		Supplier: supplierHint,
		Status:   dto.RowStatusError,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("panic while parsing document", "filename", fh.Filename, "panic", r)
			log.appendf("Exception: %v", r)
			row.Status = dto.RowStatusError
			row.LastError = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if s.maxFileSize > 0 && fh.Size > s.maxFileSize {
		row.LastError = fmt.Sprintf("file exceeds size limit (%d bytes)", s.maxFileSize)
		log.appendf("%s", row.LastError)
		return row
	}

	data, err := readUpload(fh)
	if err != nil {
		row.LastError = fmt.Sprintf("failed to read upload: %v", err)
		log.appendf("%s", row.LastError)
		return row
	}
	if len(data) == 0 {
		row.LastError = "No file attached."
		log.appendf("%s", row.LastError)
		return row
	}

	sum := sha1.Sum(data)
	row.SHA1 = hex.EncodeToString(sum[:])

	result, err := s.extractor.Extract(ctx, data, dto.DocumentMeta{Filename: fh.Filename, Supplier: supplierHint})
	if err != nil {
		row.LastError = err.Error()
		if err == dto.ErrNoMappingMatched {
			log.appendf("No mapping matched this document (check supplier hint & keywords).")
		} else {
			log.appendf("%s", row.LastError)
		}
		return row
	}

	log.appendf("Using mapping: %s (supplier=%s)", result.Mapping, result.Supplier)
	if len(result.Hits) > 0 {
		log.appendf("Hits: %s", strings.Join(result.Hits, ", "))
	}
	if noMatches := withPrefix(result.Errors, "no_match:"); len(noMatches) > 0 {
		log.appendf("No-matches: %s", strings.Join(noMatches, ", "))
	}

	if missing := withPrefix(result.Errors, "Missing required field:"); len(missing) > 0 {
		row.LastError = strings.Join(missing, "; ")
		log.appendf("Missing: %s", row.LastError)
		return row
	}

	if row.Supplier == "" {
		row.Supplier = result.Supplier
	}

	row.BillNo = stringField(result.Fields, dto.FieldBillNo)
	if row.BillNo == "" {
		row.BillNo = "AUTO-" + row.SHA1[:8]
	}

	row.BillDate = normalizedDateField(result.Fields, dto.FieldBillDate)
	if row.BillDate == "" {
		row.BillDate = time.Now().Format("2006-01-02")
	}

	row.DueDate = normalizedDateField(result.Fields, dto.FieldDueDate)
	if row.DueDate == "" {
		base, err := time.Parse("2006-01-02", row.BillDate)
		if err != nil {
			base = time.Now()
		}
		row.DueDate = base.AddDate(0, 0, 30).Format("2006-01-02")
	}

	if amt, ok := decimalField(result.Fields, dto.FieldAmount); ok {
		row.Amount = amt
	}
	if vat, ok := decimalField(result.Fields, dto.FieldVATAmount); ok {
		row.VATAmount = &vat
	}

	row.BillProfile = stringField(result.Fields, dto.FieldBillProfile)
	row.AccountNo = stringField(result.Fields, dto.FieldAccountNo)
	row.Currency = s.defaultCurrency
	row.Confidence = int(result.Confidence * 100)

	if key, ok := duplicateKey(dupRule, &row); ok {
		row.PossibleDuplicate = cache.MarkSeen(key)
	}

	row.Result = result
	row.Status = dto.RowStatusParsed
	return row
}

func runStatus(t dto.BatchTotals) dto.RunStatus {
	switch {
	case t.Ready > 0:
		return dto.RunStatusParsed
	case t.Files > 0 && t.Failed == t.Files:
		return dto.RunStatusFailed
	default:
		return dto.RunStatusDraft
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func withPrefix(entries []string, prefix string) []string {
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func decimalField(fields map[string]any, key string) (decimal.Decimal, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return decimal.Decimal{}, false
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case string:
		d, err := mapping.ParseAmount(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func normalizedDateField(fields map[string]any, key string) string {
	s := stringField(fields, key)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}
	if norm, err := mapping.ParseDateISO(s); err == nil {
		return norm
	}
	return ""
}

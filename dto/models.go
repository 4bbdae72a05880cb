package dto

import "github.com/shopspring/decimal"

// Canonical field keys produced by mapping rules and vendor parsers.
const (
	FieldBillNo      = "bill_no"
	FieldBillDate    = "bill_date"
	FieldDueDate     = "due_date"
	FieldAmount      = "amount"
	FieldBillProfile = "bill_profile"
	FieldAccountNo   = "account_no"
	FieldVATAmount   = "vat_amount"
	FieldQRCode      = "qr_code"
)

type RowStatus string

const (
	RowStatusParsed RowStatus = "Parsed"
	RowStatusError  RowStatus = "Error"
)

type RunStatus string

const (
	RunStatusParsed RunStatus = "Parsed"
	RunStatusFailed RunStatus = "Failed"
	RunStatusDraft  RunStatus = "Draft"
)

type DocumentMeta struct {
	Filename string `json:"filename"`
	Supplier string `json:"supplier,omitempty"`
}

// UploadMetadata is the optional JSON blob accompanying a batch upload.
// Supplier is a batch-wide hint; per-document entries override it.
type UploadMetadata struct {
	Supplier      string         `json:"supplier,omitempty"`
	DuplicateRule string         `json:"duplicate_rule,omitempty"`
	Documents     []DocumentMeta `json:"documents,omitempty"`
}

// ExtractionResult is the outcome of running one document through the
// pipeline: the mapping that was applied, the field values it produced,
// and the hit/error diagnostics collected along the way. Fields holds only
// what was actually captured; nothing is defaulted here.
type ExtractionResult struct {
	Mapping    string         `json:"mapping"`
	Supplier   string         `json:"supplier,omitempty"`
	Fields     map[string]any `json:"fields"`
	Hits       []string       `json:"hits"`
	Errors     []string       `json:"errors"`
	Confidence float64        `json:"confidence"`
	TextLength int            `json:"text_length"`
	PageCount  int            `json:"page_count"`
	OCRUsed    bool           `json:"ocr_used"`
}

// BatchRow is one document's normalized outcome within a batch run. Unlike
// ExtractionResult, core fields are defaulted after a successful parse
// (auto bill number, today's bill date, due date +30d, zero amount).
type BatchRow struct {
	Filename          string            `json:"filename"`
	Supplier          string            `json:"supplier,omitempty"`
	Status            RowStatus         `json:"status"`
	SHA1              string            `json:"sha1,omitempty"`
	BillNo            string            `json:"bill_no,omitempty"`
	BillDate          string            `json:"bill_date,omitempty"`
	DueDate           string            `json:"due_date,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	VATAmount         *decimal.Decimal  `json:"vat_amount,omitempty"`
	BillProfile       string            `json:"bill_profile,omitempty"`
	AccountNo         string            `json:"account_no,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	Confidence        int               `json:"confidence"`
	PossibleDuplicate bool              `json:"possible_duplicate"`
	LastError         string            `json:"last_error,omitempty"`
	Result            *ExtractionResult `json:"result,omitempty"`
}

type BatchTotals struct {
	Files  int `json:"files"`
	Parsed int `json:"parsed"`
	Ready  int `json:"ready"`
	Failed int `json:"failed"`
}

type MappingInfo struct {
	Name      string   `json:"name"`
	Supplier  string   `json:"supplier"`
	Priority  int      `json:"priority"`
	Keywords  []string `json:"keywords"`
	Active    bool     `json:"active"`
	RuleCount int      `json:"rule_count"`
}

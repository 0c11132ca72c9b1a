package models

// CheckStatus is the outcome of one audit check.
type CheckStatus string

const (
	StatusPass          CheckStatus = "PASS"
	StatusFail          CheckStatus = "FAIL"
	StatusQuestionable  CheckStatus = "QUESTIONABLE"
	StatusNotApplicable CheckStatus = "N/A"
)

// statusSeverity orders statuses for worst-of aggregation.
var statusSeverity = map[CheckStatus]int{
	StatusFail:          3,
	StatusQuestionable:  2,
	StatusPass:          1,
	StatusNotApplicable: 0,
}

// WorstStatus returns the most severe of the given statuses
// (FAIL > QUESTIONABLE > PASS > N/A). With no arguments it returns N/A.
func WorstStatus(statuses ...CheckStatus) CheckStatus {
	worst := StatusNotApplicable
	for _, s := range statuses {
		if statusSeverity[s] > statusSeverity[worst] {
			worst = s
		}
	}
	return worst
}

// Verdict is the validator's judgement on a single check.
type Verdict struct {
	CheckID          string       `json:"check_id"`
	AuditingCriteria string       `json:"auditing_criteria"`
	Status           CheckStatus  `json:"status"`
	Assessment       string       `json:"assessment"`
	SourceDocument   DocumentType `json:"source_document"`
	TargetDocument   DocumentType `json:"target_document"`
	SourceValue      string       `json:"source_value"`
	TargetValue      string       `json:"target_value"`
}

// ValidationSummary tallies verdicts by status.
type ValidationSummary struct {
	Total         int `json:"total"`
	Passed        int `json:"passed"`
	Failed        int `json:"failed"`
	Questionable  int `json:"questionable"`
	NotApplicable int `json:"not_applicable"`
}

// Summarize tallies one or more verdict slices into a single summary.
func Summarize(groups ...[]Verdict) ValidationSummary {
	var s ValidationSummary
	for _, verdicts := range groups {
		for _, v := range verdicts {
			s.Total++
			switch v.Status {
			case StatusPass:
				s.Passed++
			case StatusFail:
				s.Failed++
			case StatusQuestionable:
				s.Questionable++
			default:
				s.NotApplicable++
			}
		}
	}
	return s
}

// TariffLineItem is one matched invoice/entry line extracted ahead of
// tariff classification checks.
type TariffLineItem struct {
	LineNumber         int    `json:"line_number"`
	Description        string `json:"description"`
	TariffCode         string `json:"tariff_code"`
	StatCode           string `json:"stat_code"`
	FullCode           string `json:"full_code"`
	InvoiceQuantity    string `json:"invoice_quantity"`
	EntryPrintQuantity string `json:"entry_print_quantity"`
	UnitPrice          string `json:"unit_price"`
	TotalValue         string `json:"total_value"`
	ConcessionBylaw    string `json:"concession_bylaw,omitempty"`
	GSTExemption       bool   `json:"gst_exemption"`
}

// TariffSuggestion is the tariff agent's classification for one line.
type TariffSuggestion struct {
	TariffCode          string   `json:"tariff_code"`
	StatCode            string   `json:"stat_code"`
	OtherSuggestedCodes []string `json:"other_suggested_codes,omitempty"`
	ConcessionLink      string   `json:"concession_link,omitempty"`
	Reasoning           string   `json:"reasoning"`
}

// LineVerdict carries the four per-line tariff checks plus their
// worst-of-four overall status.
type LineVerdict struct {
	LineNumber  int    `json:"line_number"`
	Description string `json:"description"`

	ExtractedTariffCode            string      `json:"extracted_tariff_code"`
	ExtractedStatCode              string      `json:"extracted_stat_code"`
	SuggestedTariffCode            string      `json:"suggested_tariff_code"`
	SuggestedStatCode              string      `json:"suggested_stat_code"`
	TariffClassificationStatus     CheckStatus `json:"tariff_classification_status"`
	TariffClassificationAssessment string      `json:"tariff_classification_assessment"`
	OtherSuggestedCodes            []string    `json:"other_suggested_codes,omitempty"`

	ClaimedConcession    string      `json:"claimed_concession,omitempty"`
	ConcessionStatus     CheckStatus `json:"concession_status"`
	ConcessionAssessment string      `json:"concession_assessment"`
	ConcessionLink       string      `json:"concession_link,omitempty"`

	InvoiceQuantity    string      `json:"invoice_quantity"`
	EntryPrintQuantity string      `json:"entry_print_quantity"`
	QuantityStatus     CheckStatus `json:"quantity_status"`
	QuantityAssessment string      `json:"quantity_assessment"`

	GSTExemptionClaimed    bool        `json:"gst_exemption_claimed"`
	GSTExemptionStatus     CheckStatus `json:"gst_exemption_status"`
	GSTExemptionAssessment string      `json:"gst_exemption_assessment"`

	OverallStatus CheckStatus `json:"overall_status"`
}

// Overall derives the worst-of-four line status.
func (l *LineVerdict) Overall() CheckStatus {
	return WorstStatus(
		l.TariffClassificationStatus,
		l.ConcessionStatus,
		l.QuantityStatus,
		l.GSTExemptionStatus,
	)
}

// BatchValidationResult is the outcome of validating one job's bundle.
// TariffLines carries the raw extracted line items for separate
// persistence; it is not part of the validation JSON itself.
type BatchValidationResult struct {
	Header           []Verdict          `json:"header_validations"`
	Valuation        []Verdict          `json:"valuation_validations"`
	TariffLineChecks []LineVerdict      `json:"tariff_line_checks,omitempty"`
	TariffSummary    *ValidationSummary `json:"tariff_summary,omitempty"`
	Summary          ValidationSummary  `json:"summary"`
	TariffLines      []TariffLineItem   `json:"-"`
}

// ValidationDocument is the persisted form of a job's validation result.
type ValidationDocument struct {
	JobID  string `json:"job_id"`
	Region Region `json:"region"`
	BatchValidationResult
}

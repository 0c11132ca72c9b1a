package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldRef names one or more fields on a source document. Checklist JSON
// accepts either a single string or an array of strings; both forms decode
// into the same value.
type FieldRef struct {
	fields []string
}

// NewFieldRef builds a reference from explicit field names.
func NewFieldRef(fields ...string) FieldRef {
	return FieldRef{fields: fields}
}

// Fields returns the referenced field names in declaration order.
func (f FieldRef) Fields() []string {
	return f.fields
}

// String joins the field names for prompt and log rendering.
func (f FieldRef) String() string {
	return strings.Join(f.fields, ", ")
}

func (f FieldRef) MarshalJSON() ([]byte, error) {
	if len(f.fields) == 1 {
		return json.Marshal(f.fields[0])
	}
	return json.Marshal(f.fields)
}

func (f *FieldRef) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		f.fields = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("field reference must be a string or array of strings: %w", err)
	}
	f.fields = many
	return nil
}

// CompareFields declares which document fields a check compares.
type CompareFields struct {
	SourceDoc   DocumentType `json:"source_doc" validate:"required"`
	SourceField FieldRef     `json:"source_field"`
	TargetDoc   DocumentType `json:"target_doc" validate:"required"`
	TargetField FieldRef     `json:"target_field"`
}

// Check is a single audit rule within a checklist category.
type Check struct {
	ID               string        `json:"id" validate:"required"`
	AuditingCriteria string        `json:"auditing_criteria" validate:"required"`
	Description      string        `json:"description"`
	CheckingLogic    string        `json:"checking_logic"`
	PassConditions   string        `json:"pass_conditions"`
	CompareFields    CompareFields `json:"compare_fields"`
	ReferenceURL     string        `json:"reference_url,omitempty"`
}

// ChecklistCategory groups related checks (header, valuation).
type ChecklistCategory struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Checks      []Check `json:"checks"`
}

// Category keys with defined pipeline behavior.
const (
	CategoryHeader    = "header"
	CategoryValuation = "valuation"
)

// Checklist is the full audit configuration for one region.
type Checklist struct {
	Version     string `json:"version" validate:"required"`
	Region      Region `json:"region" validate:"required,oneof=AU NZ"`
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"`
	// NumericTolerance is the absolute rounding slack allowed when the
	// validator compares monetary amounts. Zero means exact match.
	NumericTolerance float64                      `json:"numeric_tolerance,omitempty"`
	Categories       map[string]ChecklistCategory `json:"categories" validate:"required"`
}

// HeaderChecks returns the header category's checks, or nil when absent.
func (c *Checklist) HeaderChecks() []Check {
	return c.Categories[CategoryHeader].Checks
}

// ValuationChecks returns the valuation category's checks, or nil when absent.
func (c *Checklist) ValuationChecks() []Check {
	return c.Categories[CategoryValuation].Checks
}

// CheckIDs flattens every check ID across categories, header first, then
// valuation, then remaining categories in map order.
func (c *Checklist) CheckIDs() []string {
	var ids []string
	seen := map[string]bool{CategoryHeader: true, CategoryValuation: true}
	for _, chk := range c.HeaderChecks() {
		ids = append(ids, chk.ID)
	}
	for _, chk := range c.ValuationChecks() {
		ids = append(ids, chk.ID)
	}
	for key, cat := range c.Categories {
		if seen[key] {
			continue
		}
		for _, chk := range cat.Checks {
			ids = append(ids, chk.ID)
		}
	}
	return ids
}

// ValidateIDs rejects duplicate check IDs across all categories.
func (c *Checklist) ValidateIDs() error {
	seen := make(map[string]bool)
	for _, id := range c.CheckIDs() {
		if seen[id] {
			return fmt.Errorf("duplicate check id %q", id)
		}
		seen[id] = true
	}
	return nil
}

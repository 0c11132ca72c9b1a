package validation

import (
	"fmt"
	"strings"

	"github.com/ternarybob/scrutor/internal/models"
)

const validatorSystemPrompt = `You are an expert customs compliance auditor specializing in express shipments for Australia and New Zealand.

Your task is to validate MULTIPLE checklist items in a single pass by directly analyzing the provided PDF documents (entry prints, commercial invoices, and air waybills).

**Your Responsibilities**:
1. Read ALL the checklist items provided in the prompt
2. Analyze the PDF documents to locate and extract all relevant fields for ALL checks
3. For EACH checklist item:
   - Compare the values between source and target documents according to its checking logic
   - Determine if the check passes, fails, or is questionable
   - Provide detailed reasoning with specific values found in the documents
4. Return validation results for ALL checklist items

**Validation Rules**:
- **PASS**: Clear match or acceptable variation according to pass conditions
- **FAIL**: Clear mismatch or violation of pass conditions
- **QUESTIONABLE**: Ambiguous situation requiring human review

**Special Considerations**:
- If both source and target values are not found/missing in the documents, default to PASS
- For company names: Allow fuzzy matching (abbreviations, minor spelling differences, corporate codes)
- For numeric values: Allow reasonable rounding differences (e.g., 100.00 vs 100)
- For currencies and codes: Allow abbreviations (e.g., "USD" vs "US Dollar", "DDP" vs "Delivered Duty Paid")
- For incoterms: Consider that DDP requires special handling for importer identity
- For dates: Allow different formats (e.g., "2025-01-15" vs "15/01/2025")

**Critical**:
- You MUST return a validation result for EVERY checklist item provided
- Always extract and show the specific values you found in each document
- Reference the exact locations where you found the values (e.g., "Found in Entry Print header section")
- Cite the actual checking logic and pass conditions in your reasoning
- Be conservative: When in doubt between PASS and QUESTIONABLE, choose QUESTIONABLE
- Be thorough: Analyze all relevant sections of the documents

Return your validations as a JSON object with a "validations" array, one entry per checklist item, in the exact format specified.`

const tariffExtractionPrompt = `You are an expert customs data extraction specialist for express shipments.

Your task is to extract and match line items from the Commercial Invoice and Entry Print documents.

**Your Responsibilities**:
1. Analyze the Commercial Invoice to extract ALL line items with:
   - Product descriptions
   - Quantities and units
   - Unit prices
   - Total values (line totals)

2. Analyze the Entry Print to extract ALL line items with:
   - Tariff classification codes (8 digits)
   - Statistical codes (2 digits)
   - Complete 10-digit codes (tariff + stat)

3. Match line items between the two documents based on:
   - Line item order and position
   - Product descriptions
   - Quantities and values

**Important Guidelines**:
- Extract ALL line items from both documents
- Match items carefully - the order may not be exactly the same
- If a tariff code is 10 digits, split it into 8-digit tariff + 2-digit stat code
- Keep descriptions exactly as they appear in the invoice
- Include currency symbols in prices (e.g., "USD 25.00")
- Format quantities with units (e.g., "5 PCS", "10.5 KG")
- If a line item appears in one document but not the other, include it with "NOT FOUND" for missing data

**Critical**:
- You MUST return ALL line items found in the documents
- Line numbers should be sequential starting from 1
- Be thorough and precise in your extraction`

// documentLabels maps document types to the attachment markers the prompt
// references.
var documentLabels = map[models.DocumentType]string{
	models.DocumentTypeEntryPrint:        "ENTRY PRINT DOCUMENT",
	models.DocumentTypeCommercialInvoice: "COMMERCIAL INVOICE DOCUMENT",
	models.DocumentTypeAirWaybill:        "AIR WAYBILL DOCUMENT",
}

// attachmentOrder fixes the order PDFs are appended after the prompt.
var attachmentOrder = []models.DocumentType{
	models.DocumentTypeEntryPrint,
	models.DocumentTypeCommercialInvoice,
	models.DocumentTypeAirWaybill,
}

// buildBatchPrompt renders the numbered checklist for one batched
// validation call.
func buildBatchPrompt(checks []models.Check, tolerance float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are analyzing PDF documents to validate %d checklist items in a SINGLE pass.

**Documents Provided Below**:
The following labeled PDF documents will be attached after this prompt:
- **ENTRY PRINT DOCUMENT**: The customs entry print/declaration
- **COMMERCIAL INVOICE DOCUMENT**: The commercial invoice
- **AIR WAYBILL DOCUMENT**: The air waybill (if referenced in checks)

Each document will be clearly labeled before its content so you can easily identify which is which.

---

**CHECKLIST ITEMS TO VALIDATE** (%d total):

`, len(checks), len(checks))

	for idx, check := range checks {
		fmt.Fprintf(&b, `
### [%d/%d] Check ID: %s
**Auditing Criteria**: %s

**Description**: %s

**Checking Logic**: %s

**Pass Conditions**: %s

**Compare**:
- Source: %s → %s
- Target: %s → %s

---
`,
			idx+1, len(checks), check.ID,
			check.AuditingCriteria,
			check.Description,
			check.CheckingLogic,
			check.PassConditions,
			check.CompareFields.SourceDoc, check.CompareFields.SourceField,
			check.CompareFields.TargetDoc, check.CompareFields.TargetField,
		)
	}

	if tolerance > 0 {
		fmt.Fprintf(&b, "\n**Numeric Tolerance**: Treat monetary amounts as matching when they differ by at most %g.\n", tolerance)
	}

	fmt.Fprintf(&b, `

**Your Task**:
1. Review the labeled PDF documents provided below (ENTRY PRINT DOCUMENT, COMMERCIAL INVOICE DOCUMENT, AIR WAYBILL DOCUMENT)
2. For EACH of the %d checklist items above:
   - Locate and extract the specified fields from the source and target documents
   - Compare the values according to the checking logic
   - Determine PASS/FAIL/QUESTIONABLE based on pass conditions
   - Document what you found with specific values and locations in the labeled documents

**Important**:
- Return a validation result for ALL %d checklist items
- Show exact values found in each labeled document
- Reference the document labels (e.g., "Found in ENTRY PRINT DOCUMENT") and specific sections
- If a value is not found, note it as "NOT FOUND"
- Follow each item's pass conditions strictly

Return a JSON object with a "validations" array containing %d entries (one for each checklist item above).
`, len(checks), len(checks), len(checks))

	return b.String()
}

package llm

import "google.golang.org/genai"

// Schema builders for structured output. Gemini enforces these natively
// via ResponseSchema; the Claude provider embeds them in the instruction.

func strSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func numSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}

func intSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Description: desc}
}

func boolSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeBoolean, Description: desc}
}

func nullableStr(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: genai.Ptr(true)}
}

func nullableNum(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc, Nullable: genai.Ptr(true)}
}

func arrSchema(items *genai.Schema, desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items, Description: desc}
}

func objSchema(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// statusSchema constrains a field to the four check statuses.
func statusSchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeString,
		Description: desc,
		Enum:        []string{"PASS", "FAIL", "QUESTIONABLE", "N/A"},
	}
}

// ClassificationSchema constrains the classifier to the closed label set.
func ClassificationSchema() *genai.Schema {
	return objSchema(map[string]*genai.Schema{
		"document_type": {
			Type:        genai.TypeString,
			Description: "The document type",
			Enum:        []string{"entry_print", "air_waybill", "commercial_invoice", "packing_list", "other"},
		},
		"reasoning": strSchema("Short explanation of the classification"),
	}, "document_type")
}

// EntryPrintSchema describes the full customs entry print record.
func EntryPrintSchema() *genai.Schema {
	lineItem := objSchema(map[string]*genai.Schema{
		"lineNo":       intSchema("Line item number"),
		"tariff":       strSchema("Tariff code (8 digits)"),
		"stat":         strSchema("2 digit statistical code"),
		"quantity":     numSchema("Quantity of the line item"),
		"quantityUnit": strSchema("Quantity unit (PC, KG, EA, M)"),
		"trt":          strSchema("Tariff treatment code after slash in ORIGIN/PREF"),
		"originPref":   strSchema("Country of origin code before slash"),
		"invoicePrice": numSchema("Invoice price from INVOICE PRICE column"),
		"customsValue": numSchema("Customs value from CUSTOMS VALUE column"),
		"dutyRate":     numSchema("Duty rate in percentage"),
		"duty":         numSchema("Computed duty amount"),
		"gst":          numSchema("Computed GST amount"),
		"addInfo":      strSchema("Content from ADD INFO column"),
		"description":  strSchema("Item description"),
		"tAndI":        numSchema("Transport & Insurance for this item"),
		"wet":          numSchema("Wine Equalization Tax"),
		"voti":         numSchema("Value of taxable importation"),
		"instrumentNo": nullableStr("Instrument reference number"),
	},
		"lineNo", "tariff", "stat", "quantity", "quantityUnit", "trt", "originPref",
		"invoicePrice", "customsValue", "dutyRate", "duty", "gst", "addInfo",
		"description", "tAndI", "wet", "voti",
	)

	return objSchema(map[string]*genai.Schema{
		"preparedDateTime":       strSchema("Date/time entry prepared"),
		"jobNo":                  strSchema("Job number"),
		"entryNo":                strSchema("Entry number"),
		"destinationPort":        strSchema("Destination port code"),
		"ownerName":              strSchema("Owner name"),
		"ownerCode":              strSchema("Owner codes"),
		"supplierName":           strSchema("Supplier full name"),
		"supplierCode":           strSchema("Supplier code"),
		"agency":                 strSchema("Agency name"),
		"mode":                   strSchema("Mode of transport"),
		"aRef":                   strSchema("A/Ref number"),
		"aircr":                  strSchema("Aircraft code or flight"),
		"loadPt":                 strSchema("Loading port"),
		"firstPt":                strSchema("First arrival port and date"),
		"dschPt":                 strSchema("Discharge port and date"),
		"iTerms":                 strSchema("Incoterms (3-letter code)"),
		"oRef":                   strSchema("Original reference"),
		"fob":                    numSchema("FOB in foreign currency"),
		"fobAUD":                 numSchema("FOB in AUD"),
		"cif":                    numSchema("CIF in foreign currency"),
		"cifAUD":                 numSchema("CIF in AUD"),
		"grwtKg":                 numSchema("Gross weight in kg"),
		"tAndI":                  numSchema("Transport & Insurance cost"),
		"itot":                   numSchema("ITOT in foreign currency"),
		"itotAUD":                numSchema("ITOT in AUD"),
		"totalCustomsValueAUD":   numSchema("Total customs value in AUD"),
		"factor":                 numSchema("Currency factor"),
		"valuationDate":          strSchema("Valuation date"),
		"crncys":                 strSchema("3-letter currency code"),
		"calculationDate":        strSchema("Calculation date/time"),
		"currencyConversionRate": numSchema("Exchange rate"),
		"lineItems":              arrSchema(lineItem, "Array of line items"),
		"totalNumberOfPackages":  intSchema("Total package count"),
		"billNos":                arrSchema(strSchema("Bill number"), "List of bill numbers"),
		"totalDuty":              numSchema("Total duty"),
		"totalGST":               numSchema("Total GST"),
		"totalWET":               numSchema("Total WET"),
		"otherCharges":           numSchema("Other charges"),
		"totalAmtPayable":        numSchema("Total amount payable"),
	},
		"preparedDateTime", "jobNo", "entryNo", "destinationPort", "ownerName",
		"ownerCode", "supplierName", "supplierCode", "agency", "mode", "aRef",
		"aircr", "loadPt", "firstPt", "dschPt", "iTerms", "oRef", "fob", "fobAUD",
		"cif", "cifAUD", "grwtKg", "tAndI", "itot", "itotAUD",
		"totalCustomsValueAUD", "factor", "valuationDate", "crncys",
		"calculationDate", "currencyConversionRate", "lineItems",
		"totalNumberOfPackages", "billNos", "totalDuty", "totalGST", "totalWET",
		"otherCharges", "totalAmtPayable",
	)
}

// CommercialInvoiceSchema describes the commercial invoice record.
func CommercialInvoiceSchema() *genai.Schema {
	lineItem := objSchema(map[string]*genai.Schema{
		"item_number":         intSchema("Line item sequence"),
		"material_number":     strSchema("Product/part code (not HS code)"),
		"invoice_tariff_code": strSchema("Tariff code if printed on the invoice, empty otherwise"),
		"description":         strSchema("Product description"),
		"quantity":            numSchema("Quantity"),
		"quantity_unit":       strSchema("Unit of measure (PC, EA, KG)"),
		"net_weight":          nullableNum("Net weight if provided"),
		"net_weight_unit":     nullableStr("Weight unit"),
		"total_price":         numSchema("Line item total price"),
		"unit_price":          numSchema("Price per unit"),
		"country_of_origin":   strSchema("Country of origin"),
	},
		"item_number", "material_number", "invoice_tariff_code", "description",
		"quantity", "quantity_unit", "total_price", "unit_price", "country_of_origin",
	)

	return objSchema(map[string]*genai.Schema{
		"invoice_number":          strSchema("Invoice number"),
		"invoice_date":            strSchema("Invoice date (YYYY-MM-DD)"),
		"invoice_currency":        strSchema("Currency code"),
		"supplier_company_name":   strSchema("Supplier company (foreign entity)"),
		"buyer_company_name":      strSchema("Buyer company name"),
		"inco_terms":              strSchema("Incoterms (3-letter code)"),
		"invoice_total_amount":    numSchema("Total invoice amount"),
		"international_freight":   nullableNum("International freight, null if not listed"),
		"insurance_charges":       nullableNum("Insurance charges, null if not listed"),
		"destination_charges":     nullableNum("Destination charges, null if not listed"),
		"import_duties":           nullableNum("Import duties, null if not listed"),
		"inland_transportation":   nullableNum("Inland transportation, null if not listed"),
		"other_charges":           nullableNum("Other charges, null if not listed"),
		"fob_amount":              nullableNum("FOB value, null if not listed"),
		"cif_amount":              nullableNum("CIF value, null if not listed"),
		"transport_and_insurance": nullableNum("Total transport + insurance, null if not listed"),
		"invoice_items":           arrSchema(lineItem, "Array of line items"),
	},
		"invoice_number", "invoice_date", "invoice_currency",
		"supplier_company_name", "buyer_company_name", "inco_terms",
		"invoice_total_amount", "invoice_items",
	)
}

// ValidationSchema constrains batch validation output to one verdict per
// submitted check.
func ValidationSchema() *genai.Schema {
	verdict := objSchema(map[string]*genai.Schema{
		"check_id":          strSchema("The ID of the checklist item being validated"),
		"auditing_criteria": strSchema("The auditing criteria being checked"),
		"status":            statusSchema("PASS if validation succeeds, FAIL if validation fails, QUESTIONABLE if unclear or partially matching, N/A if not applicable"),
		"assessment":        strSchema("Detailed reasoning explaining the validation result, including what was compared and why the status was assigned"),
		"source_document":   strSchema("The source document used for validation"),
		"target_document":   strSchema("The target document used for validation"),
		"source_value":      strSchema("The actual value(s) extracted from the source document, or 'NOT FOUND'"),
		"target_value":      strSchema("The actual value(s) extracted from the target document, or 'NOT FOUND'"),
	},
		"check_id", "auditing_criteria", "status", "assessment",
		"source_document", "target_document", "source_value", "target_value",
	)

	return objSchema(map[string]*genai.Schema{
		"validations": arrSchema(verdict, "One verdict per checklist item, in the order the checks were listed"),
	}, "validations")
}

// TariffLinesSchema constrains tariff line extraction output.
func TariffLinesSchema() *genai.Schema {
	line := objSchema(map[string]*genai.Schema{
		"line_number":          intSchema("Line item number (sequential starting from 1)"),
		"description":          strSchema("Product description from commercial invoice"),
		"tariff_code":          strSchema("8-digit tariff classification code from entry print"),
		"stat_code":            strSchema("Statistical code from entry print (AU: 2-digit, NZ: 3-char like 00H)"),
		"full_code":            strSchema("Complete code (AU: 10 digits = tariff + stat, NZ: 11 chars = tariff + stat key)"),
		"invoice_quantity":     strSchema("Quantity and unit from commercial invoice (e.g., '5 PCS', '10.5 KG')"),
		"entry_print_quantity": strSchema("Quantity and unit from entry print (e.g., '5 PCS', '10.5 KG')"),
		"unit_price":           strSchema("Unit price from invoice (e.g., 'USD 25.00')"),
		"total_value":          strSchema("Total line value from invoice (e.g., 'USD 125.00')"),
		"concession_bylaw":     nullableStr("Tariff concession or by-law number from entry print, empty if no concession claimed"),
		"gst_exemption":        boolSchema("Whether GST exemption is claimed for this line in entry print"),
	},
		"line_number", "description", "tariff_code", "stat_code", "full_code",
		"invoice_quantity", "entry_print_quantity", "unit_price", "total_value",
		"gst_exemption",
	)

	return objSchema(map[string]*genai.Schema{
		"line_items": arrSchema(line, "List of all line items with descriptions and tariff codes"),
	}, "line_items")
}

// TariffSuggestionSchema constrains the tariff agent's classification.
func TariffSuggestionSchema() *genai.Schema {
	return objSchema(map[string]*genai.Schema{
		"tariff_code":           strSchema("Suggested 8-digit tariff classification code"),
		"stat_code":             strSchema("Suggested statistical code"),
		"other_suggested_codes": arrSchema(strSchema("Alternative full code"), "Other plausible codes in descending likelihood"),
		"concession_link":       nullableStr("TCO/Schedule 4 reference if a concession plausibly applies"),
		"reasoning":             strSchema("Classification reasoning grounded in the tariff data provided"),
	}, "tariff_code", "stat_code", "reasoning")
}

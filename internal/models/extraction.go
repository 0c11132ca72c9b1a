package models

// EntryPrintLineItem is one tariff line on a customs entry print.
type EntryPrintLineItem struct {
	LineNo       int     `json:"lineNo"`
	Tariff       string  `json:"tariff"`
	Stat         string  `json:"stat"`
	Quantity     float64 `json:"quantity"`
	QuantityUnit string  `json:"quantityUnit"`
	Trt          string  `json:"trt"`
	OriginPref   string  `json:"originPref"`
	InvoicePrice float64 `json:"invoicePrice"`
	CustomsValue float64 `json:"customsValue"`
	DutyRate     float64 `json:"dutyRate"`
	Duty         float64 `json:"duty"`
	GST          float64 `json:"gst"`
	AddInfo      string  `json:"addInfo"`
	Description  string  `json:"description"`
	TAndI        float64 `json:"tAndI"`
	WET          float64 `json:"wet"`
	VoTI         float64 `json:"voti"`
	InstrumentNo *string `json:"instrumentNo"`
}

// EntryPrintExtraction is the structured record pulled from a customs
// entry print. Field names mirror the entry print's own layout.
type EntryPrintExtraction struct {
	PreparedDateTime string `json:"preparedDateTime"`
	JobNo            string `json:"jobNo"`
	EntryNo          string `json:"entryNo"`
	DestinationPort  string `json:"destinationPort"`

	OwnerName string `json:"ownerName"`
	OwnerCode string `json:"ownerCode"`

	SupplierName string `json:"supplierName"`
	SupplierCode string `json:"supplierCode"`

	Agency  string `json:"agency"`
	Mode    string `json:"mode"`
	ARef    string `json:"aRef"`
	Aircr   string `json:"aircr"`
	LoadPt  string `json:"loadPt"`
	FirstPt string `json:"firstPt"`
	DschPt  string `json:"dschPt"`

	ITerms  string  `json:"iTerms"`
	ORef    string  `json:"oRef"`
	FOB     float64 `json:"fob"`
	FOBAUD  float64 `json:"fobAUD"`
	CIF     float64 `json:"cif"`
	CIFAUD  float64 `json:"cifAUD"`
	GrWtKg  float64 `json:"grwtKg"`
	TAndI   float64 `json:"tAndI"`
	ITot    float64 `json:"itot"`
	ITotAUD float64 `json:"itotAUD"`

	TotalCustomsValueAUD   float64 `json:"totalCustomsValueAUD"`
	Factor                 float64 `json:"factor"`
	ValuationDate          string  `json:"valuationDate"`
	Crncys                 string  `json:"crncys"`
	CalculationDate        string  `json:"calculationDate"`
	CurrencyConversionRate float64 `json:"currencyConversionRate"`

	LineItems []EntryPrintLineItem `json:"lineItems"`

	TotalNumberOfPackages int      `json:"totalNumberOfPackages"`
	BillNos               []string `json:"billNos"`

	TotalDuty       float64 `json:"totalDuty"`
	TotalGST        float64 `json:"totalGST"`
	TotalWET        float64 `json:"totalWET"`
	OtherCharges    float64 `json:"otherCharges"`
	TotalAmtPayable float64 `json:"totalAmtPayable"`
}

// InvoiceLineItem is one product line on a commercial invoice.
type InvoiceLineItem struct {
	ItemNumber        int      `json:"item_number"`
	MaterialNumber    string   `json:"material_number"`
	InvoiceTariffCode string   `json:"invoice_tariff_code"`
	Description       string   `json:"description"`
	Quantity          float64  `json:"quantity"`
	QuantityUnit      string   `json:"quantity_unit"`
	NetWeight         *float64 `json:"net_weight"`
	NetWeightUnit     *string  `json:"net_weight_unit"`
	TotalPrice        float64  `json:"total_price"`
	UnitPrice         float64  `json:"unit_price"`
	CountryOfOrigin   string   `json:"country_of_origin"`
}

// CommercialInvoiceExtraction is the structured record pulled from a
// commercial invoice. Optional charges stay nil when the invoice does not
// list them, which downstream validation treats differently from zero.
type CommercialInvoiceExtraction struct {
	InvoiceNumber       string  `json:"invoice_number"`
	InvoiceDate         string  `json:"invoice_date"`
	InvoiceCurrency     string  `json:"invoice_currency"`
	SupplierCompanyName string  `json:"supplier_company_name"`
	BuyerCompanyName    string  `json:"buyer_company_name"`
	IncoTerms           string  `json:"inco_terms"`
	InvoiceTotalAmount  float64 `json:"invoice_total_amount"`

	InternationalFreight  *float64 `json:"international_freight"`
	InsuranceCharges      *float64 `json:"insurance_charges"`
	DestinationCharges    *float64 `json:"destination_charges"`
	ImportDuties          *float64 `json:"import_duties"`
	InlandTransportation  *float64 `json:"inland_transportation"`
	OtherCharges          *float64 `json:"other_charges"`
	FOBAmount             *float64 `json:"fob_amount"`
	CIFAmount             *float64 `json:"cif_amount"`
	TransportAndInsurance *float64 `json:"transport_and_insurance"`

	InvoiceItems []InvoiceLineItem `json:"invoice_items"`
}

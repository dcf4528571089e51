package fiscal

// ofdCreateResponse is the provider's answer to a document submission
type ofdCreateResponse struct {
	UID    string        `json:"uuid"`
	Status string        `json:"status"`
	Error  *ofdErrorBody `json:"error"`
}

// ofdInfoResponse is the provider's state of a submitted document
type ofdInfoResponse struct {
	UID     string        `json:"uuid"`
	Status  string        `json:"status"`
	Payload *ofdPayload   `json:"payload"`
	Error   *ofdErrorBody `json:"error"`
}

// ofdPayload carries the fiscal identifiers assigned by the cash register
type ofdPayload struct {
	FiscalReceiptNumber int64  `json:"fiscal_receipt_number"`
	EcrRegistrationNum  string `json:"ecr_registration_number"`
	FnNumber            string `json:"fn_number"`
	FiscalDocumentNum   int64  `json:"fiscal_document_number"`
	FiscalDocumentAttr  int64  `json:"fiscal_document_attribute"`
}

// ofdErrorBody is the provider's error envelope
type ofdErrorBody struct {
	Code int    `json:"code"`
	Text string `json:"text"`
	Type string `json:"type"`
}

package extract

import "regexp"

// Default rule cascades for Russian receipts and invoices. Order inside
// each cascade is the rule priority: first-match policies short-circuit
// at the lowest-index rule that produced anything.
//
// Label tokens are matched case-insensitively and quoted spans tolerate
// the typographic quote variants OCR produces («», “”, ").

var (
	innRules = []*regexp.Regexp{
		// exactly 10 or 12 digits; the 12-digit alternative goes first so
		// an individual taxpayer number is not truncated to 10 digits
		regexp.MustCompile(`(?i)ИНН[:\s]*(\d{12}|\d{10})\b`),
		regexp.MustCompile(`(?i)ИНН\s*(?:№|продавца|получателя|покупателя)[:\s]*(\d{12}|\d{10})\b`),
	}

	vendorRules = []*regexp.Regexp{
		regexp.MustCompile(`(ООО\s+["«“]?[^"»“”\n]{3,50}["»”]?)`),
		regexp.MustCompile(`((?:ПАО|ЗАО|АО)\s+["«“]?[^"»“”\n]{3,50}["»”]?)`),
		regexp.MustCompile(`(ИП\s+[А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`),
		regexp.MustCompile(`([А-ЯЁ][А-ЯЁ\s]{10,50}(?:ООО|АО|ИП))`),
	}

	dateRules = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`),
		regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(\d{2}\.\d{2}\.\d{2})\b`),
		regexp.MustCompile(`(?i)(\d{1,2}\s+(?:января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+\d{4})`),
		regexp.MustCompile(`(?i)(\d{1,2}\s+(?:янв|фев|мар|апр|мая|июн|июл|авг|сен|окт|ноя|дек)\.?\s+\d{4})`),
	}

	// totalLabel covers the synonym set receipts actually use.
	totalLabel = `(?:итого?|всего(?:\s+к\s+оплате)?|к\s+оплате|сумма(?:\s+заказа|\s+операции|\s+в\s+валюте\s+карты)?|total)`

	totalRules = []*regexp.Regexp{
		// label + decimal amount, thousands grouped by spaces (incl. NBSP)
		regexp.MustCompile(`(?i)` + totalLabel + `[:\s=]*(\d{1,3}(?:[ \x{00A0}]\d{3})+[.,]\d{2})`),
		// label + decimal amount, thousands grouped by commas
		regexp.MustCompile(`(?i)` + totalLabel + `[:\s=]*((?:\d{1,3},)+\d{3}\.\d{2})`),
		// label + plain decimal amount
		regexp.MustCompile(`(?i)` + totalLabel + `[:\s=]*(\d+[.,]\d{2})`),
		// payment-confirmation labels
		regexp.MustCompile(`(?i)(?:электронный\s+платеж|оплата)[:\s]*((?:\d{1,3}[ \x{00A0}])*\d+[.,]\d{2})`),
		// equals-sign prefixed amount
		regexp.MustCompile(`=\s*((?:\d{1,3}[ \x{00A0}])*\d+[.,]\d{2})`),
		// amount with currency marker on its own line
		regexp.MustCompile(`(?m)^\s*((?:\d{1,3}[ \x{00A0},])*\d+[.,]\d{2})\s*(?:₽|руб\.?|RUB|Р|P)\s*$`),
		// kopeck-less totals: OCR of thermal receipts often drops the
		// decimal part, and may read ₽ as a latin "i"
		regexp.MustCompile(`(?i)` + totalLabel + `[:\s=]*(\d{1,3}(?:[ \x{00A0}]\d{3})+|\d{2,9})\s*(?:₽|руб\.?|RUB|Р|P|i)`),
	}

	timeRules = []*regexp.Regexp{
		// seconds-precision first so "18:03:27" is not cut to "18:03"
		regexp.MustCompile(`\b(\d{2}:\d{2}:\d{2})\b`),
		regexp.MustCompile(`\b(\d{2}:\d{2})\b`),
	}

	ofdRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ФНС[:\s]+([a-z0-9.-]+\.[a-z]{2,})`),
		regexp.MustCompile(`(?i)((?:ofd|nalog|taxcom|platformaofd)\.[a-z]{2,})`),
	}

	invoiceNumberRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Сч[её]т[:\s-]*(?:фактура)?[:\s#№]*(\d+)`),
		regexp.MustCompile(`(?i)Чек[:\s#№]*(\d+)`),
		regexp.MustCompile(`(?i)Документ[:\s#№]*(\d+)`),
		regexp.MustCompile(`№[:\s]*(\d+)`),
	}

	phoneRules = []*regexp.Regexp{
		regexp.MustCompile(`\+?[78][\s-]?\(?(\d{3})\)?[\s-]?(\d{3})[\s-]?(\d{2})[\s-]?(\d{2})`),
	}

	emailRules = []*regexp.Regexp{
		regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	}

	addressRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Адрес|ADDRESS)[:\s]*([^\n]{10,100})`),
	}

	// decimalNumberRe feeds the corpus-wide max-value fallback for the
	// total field: every decimal-looking number in the document.
	decimalNumberRe = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}]\d{3})+[.,]\d{2}|\d+[.,]\d{2}`)
)

// DefaultFields returns the field definitions the service extracts.
// The returned slice and its rule lists must be treated as read-only.
func DefaultFields() []FieldDef {
	return []FieldDef{
		{Name: FieldINN, Policy: PolicyFirstMatch, Mandatory: true, Rules: innRules},
		{Name: FieldVendor, Policy: PolicyFirstMatch, Mandatory: true, Rules: vendorRules},
		{Name: FieldDate, Policy: PolicyFirstMatch, Mandatory: true, Rules: dateRules},
		{Name: FieldTotal, Policy: PolicyMaxValue, Mandatory: true, Rules: totalRules},
		{Name: FieldInvoiceNumber, Policy: PolicyFirstMatch, Mandatory: false, Rules: invoiceNumberRules},
		{Name: FieldTime, Policy: PolicyFirstMatch, Mandatory: false, Rules: timeRules},
		{Name: FieldPhone, Policy: PolicyFirstMatch, Mandatory: false, Rules: phoneRules},
		{Name: FieldEmail, Policy: PolicyFirstMatch, Mandatory: false, Rules: emailRules},
		{Name: FieldAddress, Policy: PolicyFirstMatch, Mandatory: false, Rules: addressRules},
		{Name: FieldOFD, Policy: PolicyFirstMatch, Mandatory: false, Rules: ofdRules},
	}
}

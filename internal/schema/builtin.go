package schema

// Names of the built-in schemas.
const (
	NameLegalBusinessName = "legal_business_name"
	NameCreditApplication = "credit_application"
)

// LegalBusinessName extracts only the applicant's legal name. It is the
// default deployment schema.
var LegalBusinessName = MustNew(NameLegalBusinessName, 1,
	RequiredString("legal_business_name"),
)

// CreditApplication is the full business credit application field set.
var CreditApplication = MustNew(NameCreditApplication, 2,
	RequiredString("legal_business_name"),
	String("dba_name"),
	String("business_address"),
	String("city"),
	String("state"),
	String("zip_code"),
	String("country"),
	String("business_phone"),
	String("fax"),
	String("business_email"),
	String("website"),
	String("federal_tax_id"),
	String("business_type"),
	String("state_of_incorporation"),
	String("date_established"),
	String("years_in_business"),
	String("annual_revenue"),
	String("number_of_employees"),
	String("credit_limit_requested"),
	String("principal_name"),
	String("principal_title"),
	String("principal_phone"),
	String("principal_email"),
	String("accounts_payable_contact"),
	String("accounts_payable_phone"),
	String("accounts_payable_email"),
	String("bank_name"),
	String("bank_account_number"),
	String("bank_contact"),
	String("bank_phone"),
	RecordList("trade_references",
		"company_name", "contact_name", "phone", "email", "address", "account_number"),
	String("signer_name"),
	String("signer_title"),
	String("signature_date"),
)

func init() {
	Register(LegalBusinessName)
	Register(CreditApplication)
}

package normalizer

// defaultTable maps each canonical document type to its known alias
// spellings. Matching is case- and separator-insensitive, so aliases only
// need to cover genuinely different wordings.
var defaultTable = map[string][]string{
	"passport": {
		"passport_international",
		"international passport",
		"travel passport",
		"valid passport",
		"passport copy",
	},
	"application_form": {
		"visa application form",
		"application form",
		"visa form",
		"ds-160",
		"ds160 form",
	},
	"photo": {
		"passport photo",
		"passport-size photo",
		"photograph",
		"biometric photo",
	},
	"bank_statement": {
		"financial_proof",
		"bank statements",
		"proof of funds",
		"account statement",
		"financial statement",
	},
	"employment_letter": {
		"employment certificate",
		"letter from employer",
		"work certificate",
		"proof of employment",
	},
	"income_proof": {
		"salary certificate",
		"payslips",
		"proof of income",
		"tax return",
	},
	"sponsor_financial_guarantee": {
		"sponsor letter",
		"sponsorship letter",
		"sponsor bank statement",
		"affidavit of support",
		"i-134",
	},
	"invitation_letter": {
		"letter of invitation",
		"invitation",
		"host invitation",
	},
	"travel_itinerary": {
		"flight reservation",
		"flight booking",
		"itinerary",
		"round trip ticket",
	},
	"accommodation_proof": {
		"hotel reservation",
		"hotel booking",
		"proof of accommodation",
	},
	"travel_insurance": {
		"medical insurance",
		"health insurance",
		"insurance policy",
	},
	"property_deed": {
		"property ownership",
		"real estate certificate",
		"property documents",
	},
	"marriage_certificate": {
		"certificate of marriage",
	},
	"birth_certificate": {
		"certificate of birth",
	},
	"acceptance_letter": {
		"letter of acceptance",
		"admission letter",
		"i-20",
		"enrollment confirmation",
	},
	"tuition_payment_proof": {
		"tuition receipt",
		"proof of tuition payment",
	},
	"explanation_letter": {
		"cover letter",
		"letter of explanation",
		"statement of purpose",
		"refusal explanation",
	},
	"parental_consent": {
		"parental authorization",
		"consent of parents",
		"notarized parental consent",
	},
	"previous_visas": {
		"old visas",
		"previous visa copies",
		"travel history proof",
	},
	"employment_contract": {
		"work contract",
		"job contract",
		"labor contract",
	},
	"criminal_record_certificate": {
		"police clearance",
		"police certificate",
		"certificate of no criminal record",
	},
}

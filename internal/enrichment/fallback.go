package enrichment

import (
	"strings"

	"github.com/visabuddy/ai-service/internal/checklist"
)

type staticContent struct {
	Name          map[string]string
	Description   map[string]string
	WhereToObtain string
}

// staticTable is the rules-only fallback content, keyed by canonical document
// type. English is always present; ru/uz fall back to English when missing.
var staticTable = map[string]staticContent{
	"passport": {
		Name: map[string]string{
			"en": "Valid Passport",
			"ru": "Действующий загранпаспорт",
			"uz": "Amaldagi xorijiy pasport",
		},
		Description: map[string]string{
			"en": "Passport valid for at least 6 months beyond the intended stay, with at least two blank pages.",
			"ru": "Паспорт, действительный не менее 6 месяцев после окончания поездки, минимум две пустые страницы.",
			"uz": "Safar tugaganidan keyin kamida 6 oy amal qiladigan, kamida ikkita bo'sh sahifali pasport.",
		},
		WhereToObtain: "State migration service or passport office.",
	},
	"application_form": {
		Name: map[string]string{
			"en": "Visa Application Form",
			"ru": "Анкета на визу",
			"uz": "Viza arizasi shakli",
		},
		Description: map[string]string{
			"en": "Completed and signed visa application form for the destination country.",
			"ru": "Заполненная и подписанная визовая анкета.",
			"uz": "To'ldirilgan va imzolangan viza arizasi.",
		},
		WhereToObtain: "Embassy website or official visa application portal.",
	},
	"photo": {
		Name: map[string]string{
			"en": "Passport Photo",
			"ru": "Фотография паспортного формата",
			"uz": "Pasport formatidagi surat",
		},
		Description: map[string]string{
			"en": "Recent passport-sized photograph meeting the embassy's biometric requirements.",
			"ru": "Недавняя фотография паспортного формата, соответствующая биометрическим требованиям.",
			"uz": "Elchixona talablariga mos yaqinda olingan biometrik surat.",
		},
		WhereToObtain: "Any photo studio; ask for visa photo specifications.",
	},
	"bank_statement": {
		Name: map[string]string{
			"en": "Bank Statement",
			"ru": "Выписка из банка",
			"uz": "Bank hisobidan ko'chirma",
		},
		Description: map[string]string{
			"en": "Bank statements for the last 3-6 months showing sufficient funds for the trip.",
			"ru": "Выписка за последние 3-6 месяцев, подтверждающая достаточность средств.",
			"uz": "Safar uchun yetarli mablag'ni ko'rsatuvchi oxirgi 3-6 oylik bank ko'chirmasi.",
		},
		WhereToObtain: "Your bank branch or online banking.",
	},
	"employment_letter": {
		Name: map[string]string{
			"en": "Employment Letter",
			"ru": "Справка с места работы",
			"uz": "Ish joyidan ma'lumotnoma",
		},
		Description: map[string]string{
			"en": "Letter from your employer confirming position, salary and approved leave.",
			"ru": "Письмо от работодателя с указанием должности, зарплаты и одобренного отпуска.",
			"uz": "Lavozim, maosh va ta'tilni tasdiqlovchi ish beruvchi xati.",
		},
		WhereToObtain: "Your employer's HR department.",
	},
	"income_proof": {
		Name: map[string]string{
			"en": "Proof of Income",
			"ru": "Подтверждение дохода",
			"uz": "Daromad tasdiqnomasi",
		},
		Description: map[string]string{
			"en": "Salary certificate, payslips or tax returns documenting regular income.",
		},
		WhereToObtain: "Employer accounting department or tax office.",
	},
	"sponsor_financial_guarantee": {
		Name: map[string]string{
			"en": "Sponsor Financial Guarantee",
			"ru": "Финансовая гарантия спонсора",
			"uz": "Homiy moliyaviy kafolati",
		},
		Description: map[string]string{
			"en": "Sponsorship letter plus the sponsor's bank statements and proof of relationship.",
			"ru": "Спонсорское письмо, выписка из банка спонсора и подтверждение родства.",
			"uz": "Homiylik xati, homiyning bank ko'chirmasi va qarindoshlik tasdiqnomasi.",
		},
		WhereToObtain: "Prepared by your sponsor with their bank documents.",
	},
	"invitation_letter": {
		Name: map[string]string{
			"en": "Invitation Letter",
			"ru": "Приглашение",
			"uz": "Taklifnoma",
		},
		Description: map[string]string{
			"en": "Invitation from a host, company or institution in the destination country.",
		},
		WhereToObtain: "Provided by your host in the destination country.",
	},
	"travel_itinerary": {
		Name: map[string]string{
			"en": "Travel Itinerary",
			"ru": "Маршрут поездки",
			"uz": "Sayohat rejasi",
		},
		Description: map[string]string{
			"en": "Round-trip flight reservation covering the full stay.",
		},
		WhereToObtain: "Airline or travel agency; a reservation is usually sufficient.",
	},
	"accommodation_proof": {
		Name: map[string]string{
			"en": "Proof of Accommodation",
			"ru": "Подтверждение проживания",
			"uz": "Turar joy tasdiqnomasi",
		},
		Description: map[string]string{
			"en": "Hotel bookings or a host's address covering every night of the stay.",
		},
		WhereToObtain: "Hotel booking platform or your host.",
	},
	"travel_insurance": {
		Name: map[string]string{
			"en": "Travel Medical Insurance",
			"ru": "Туристическая медицинская страховка",
			"uz": "Sayohat tibbiy sug'urtasi",
		},
		Description: map[string]string{
			"en": "Medical insurance valid in the destination with the required minimum coverage.",
		},
		WhereToObtain: "Insurance company or online insurance broker.",
	},
	"property_deed": {
		Name: map[string]string{
			"en": "Property Ownership Documents",
			"ru": "Документы на недвижимость",
			"uz": "Mulk hujjatlari",
		},
		Description: map[string]string{
			"en": "Deeds or registry extracts proving real estate ownership in your home country.",
		},
		WhereToObtain: "State property registry (cadastre).",
	},
	"marriage_certificate": {
		Name: map[string]string{
			"en": "Marriage Certificate",
			"ru": "Свидетельство о браке",
			"uz": "Nikoh guvohnomasi",
		},
		Description: map[string]string{
			"en": "Official marriage certificate, translated if required by the embassy.",
		},
		WhereToObtain: "Civil registry office (ZAGS).",
	},
	"birth_certificate": {
		Name: map[string]string{
			"en": "Birth Certificate",
			"ru": "Свидетельство о рождении",
			"uz": "Tug'ilganlik guvohnomasi",
		},
		Description: map[string]string{
			"en": "Official birth certificate, translated if required by the embassy.",
		},
		WhereToObtain: "Civil registry office (ZAGS).",
	},
	"acceptance_letter": {
		Name: map[string]string{
			"en": "Acceptance Letter",
			"ru": "Письмо о зачислении",
			"uz": "Qabul xati",
		},
		Description: map[string]string{
			"en": "Letter of acceptance or enrollment confirmation from the educational institution.",
			"ru": "Письмо о зачислении из учебного заведения.",
			"uz": "O'quv muassasasidan qabul qilinganlik xati.",
		},
		WhereToObtain: "Admissions office of the institution.",
	},
	"tuition_payment_proof": {
		Name: map[string]string{
			"en": "Proof of Tuition Payment",
			"ru": "Подтверждение оплаты обучения",
			"uz": "O'qish to'lovi tasdiqnomasi",
		},
		Description: map[string]string{
			"en": "Receipt or bank transfer confirmation for tuition fees.",
		},
		WhereToObtain: "Your bank or the institution's finance office.",
	},
	"explanation_letter": {
		Name: map[string]string{
			"en": "Letter of Explanation",
			"ru": "Объяснительное письмо",
			"uz": "Tushuntirish xati",
		},
		Description: map[string]string{
			"en": "Personal letter addressing previous refusals, gaps or unusual circumstances in your application.",
			"ru": "Письмо с объяснением предыдущих отказов или особых обстоятельств.",
			"uz": "Avvalgi rad etishlar yoki alohida holatlarni tushuntiruvchi xat.",
		},
		WhereToObtain: "Written by the applicant; keep it factual and concise.",
	},
	"parental_consent": {
		Name: map[string]string{
			"en": "Notarized Parental Consent",
			"ru": "Нотариальное согласие родителей",
			"uz": "Ota-onaning notarial roziligi",
		},
		Description: map[string]string{
			"en": "Notarized consent from both parents for a minor travelling without them.",
		},
		WhereToObtain: "Notary office, with both parents' passports.",
	},
	"previous_visas": {
		Name: map[string]string{
			"en": "Previous Visas",
			"ru": "Предыдущие визы",
			"uz": "Avvalgi vizalar",
		},
		Description: map[string]string{
			"en": "Copies of previous visas and entry stamps showing travel history.",
		},
		WhereToObtain: "Copies from your current and expired passports.",
	},
	"employment_contract": {
		Name: map[string]string{
			"en": "Employment Contract",
			"ru": "Трудовой договор",
			"uz": "Mehnat shartnomasi",
		},
		Description: map[string]string{
			"en": "Signed employment contract with the employer in the destination country.",
		},
		WhereToObtain: "Provided by the hiring employer.",
	},
	"criminal_record_certificate": {
		Name: map[string]string{
			"en": "Police Clearance Certificate",
			"ru": "Справка о несудимости",
			"uz": "Sudlanmaganlik haqida ma'lumotnoma",
		},
		Description: map[string]string{
			"en": "Certificate of no criminal record issued within the validity window the embassy requires.",
		},
		WhereToObtain: "Ministry of internal affairs or public service center.",
	},
}

// staticItem builds a checklist item for a base entry from the static table.
// Unknown (unnormalized) types get a humanized name so a misconfigured
// catalog still yields a usable checklist.
func staticItem(base checklist.BaseChecklistItem, locale string) checklist.Item {
	item := checklist.Item{
		DocumentType: base.DocumentType,
		Category:     base.Category,
		Required:     base.Required,
		Source:       checklist.SourceRules,
		Applies:      true,
		Priority:     priorityFor(base.Category),
	}

	content, ok := staticTable[base.DocumentType]
	if !ok {
		item.Name = humanize(base.DocumentType)
		item.NameLocalized = map[string]string{"en": item.Name}
		item.Description = "Required document for your visa application. Verify details with the embassy."
		return item
	}

	item.Name = localized(content.Name, locale)
	item.NameLocalized = content.Name
	item.Description = localized(content.Description, locale)
	item.WhereToObtain = content.WhereToObtain

	return item
}

var legacyNotes = []string{
	"This is a basic checklist. Please verify specific requirements with the embassy.",
}

// legacyItems is the hand-authored generic checklist, used only when no
// ruleset exists for the country/visa category pair.
func legacyItems(visaCategory, locale string) []checklist.Item {
	types := []checklist.BaseChecklistItem{
		{DocumentType: "passport", Category: checklist.CategoryRequired, Required: true},
		{DocumentType: "application_form", Category: checklist.CategoryRequired, Required: true},
		{DocumentType: "photo", Category: checklist.CategoryRequired, Required: true},
		{DocumentType: "bank_statement", Category: checklist.CategoryRequired, Required: true},
	}

	if strings.EqualFold(visaCategory, "student") {
		types = append(types, checklist.BaseChecklistItem{
			DocumentType: "acceptance_letter",
			Category:     checklist.CategoryRequired,
			Required:     true,
		})
	}

	items := make([]checklist.Item, len(types))
	for i, base := range types {
		items[i] = staticItem(base, locale)
	}

	return items
}

func localized(m map[string]string, locale string) string {
	if v, ok := m[locale]; ok && v != "" {
		return v
	}
	return m["en"]
}

func humanize(docType string) string {
	words := strings.FieldsFunc(docType, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func priorityFor(category checklist.Category) int {
	switch category {
	case checklist.CategoryRequired:
		return 1
	case checklist.CategoryHighlyRecommended:
		return 3
	default:
		return 4
	}
}

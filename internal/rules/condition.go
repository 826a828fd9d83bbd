package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
)

// evalCondition interprets a catalog condition against a profile. It is total
// over well-formed conditions; malformed ops or unknown fields return an
// error so the caller can skip that single rule.
func evalCondition(cond catalog.Condition, profile *checklist.ApplicantProfile) (bool, error) {
	switch cond.Op {
	case catalog.OpEquals:
		v, err := fieldValue(profile, cond.Field)
		if err != nil {
			return false, err
		}
		// An unknown field never equals anything, including "unknown"
		// spelled as a comparison value.
		if v == "" {
			return false, nil
		}
		return strings.EqualFold(v, cond.Value), nil

	case catalog.OpIsTrue:
		v, err := fieldValue(profile, cond.Field)
		if err != nil {
			return false, err
		}
		return v == string(checklist.TriYes), nil

	case catalog.OpIsFalse:
		v, err := fieldValue(profile, cond.Field)
		if err != nil {
			return false, err
		}
		return v == string(checklist.TriNo), nil

	case catalog.OpIsUnknown:
		v, err := fieldValue(profile, cond.Field)
		if err != nil {
			return false, err
		}
		return v == "", nil

	case catalog.OpAnd:
		if len(cond.Args) == 0 {
			return false, fmt.Errorf("and condition has no arguments")
		}
		for _, arg := range cond.Args {
			ok, err := evalCondition(arg, profile)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case catalog.OpOr:
		if len(cond.Args) == 0 {
			return false, fmt.Errorf("or condition has no arguments")
		}
		for _, arg := range cond.Args {
			ok, err := evalCondition(arg, profile)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown condition op %q", cond.Op)
	}
}

// fieldValue projects a profile field to a comparable string. TriState fields
// yield "yes"/"no", numeric and string fields their value; "" always means
// unknown.
func fieldValue(profile *checklist.ApplicantProfile, field string) (string, error) {
	switch field {
	case "countryCode":
		return profile.CountryCode, nil
	case "visaCategory":
		return profile.VisaCategory, nil
	case "tripCategory":
		return profile.TripCategory, nil
	case "sponsorType":
		return profile.SponsorType, nil
	case "language":
		return profile.Language, nil
	case "fundsEstimate":
		if profile.FundsEstimate == nil {
			return "", nil
		}
		return strconv.Itoa(*profile.FundsEstimate), nil
	case "monthlyIncome":
		if profile.MonthlyIncome == nil {
			return "", nil
		}
		return strconv.Itoa(*profile.MonthlyIncome), nil
	case "travelHistory":
		return triValue(profile.TravelHistory), nil
	case "priorRefusal":
		return triValue(profile.PriorRefusal), nil
	case "ownsProperty":
		return triValue(profile.OwnsProperty), nil
	case "familyTies":
		return triValue(profile.FamilyTies), nil
	case "employed":
		return triValue(profile.Employed), nil
	case "isMinor":
		return triValue(profile.IsMinor), nil
	case "hasDependents":
		return triValue(profile.HasDependents), nil
	default:
		return "", fmt.Errorf("unknown profile field %q", field)
	}
}

func triValue(t checklist.TriState) string {
	if t.IsUnknown() {
		return ""
	}
	return string(t)
}

// Package taxonomy holds the sensitivity levels and the guidance text the
// classifier shows the model for each of them.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/colsense/colsense/internal/types"
)

// Entry describes a single level.
type Entry struct {
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples" yaml:"examples"`
}

// Guidance maps each level to its description and example column names.
type Guidance map[types.SensitivityLevel]Entry

// Levels returns the ordered list of classifiable levels.
func Levels() []types.SensitivityLevel { return types.ClassifiableLevels() }

// Default returns a fresh copy of the built-in guidance.
func Default() Guidance {
	g := make(Guidance, len(builtin))
	for k, v := range builtin {
		ex := make([]string, len(v.Examples))
		copy(ex, v.Examples)
		g[k] = Entry{Description: v.Description, Examples: ex}
	}
	return g
}

var builtin = Guidance{
	types.LevelPublic: {
		Description: "Data that is generally available or poses very low risk if exposed. Can be shared widely.",
		Examples: []string{
			"product_id", "category_name", "public_website_url", "city_name",
			"country_code", "product_description", "timestamp_utc", "log_level",
		},
	},
	types.LevelInternal: {
		Description: "Data for internal business use only. Not intended for public disclosure, but not highly sensitive.",
		Examples: []string{
			"employee_id", "internal_project_code", "department_name", "office_location",
			"internal_ticket_id", "system_status_message", "server_ip_address_internal",
			"application_version",
		},
	},
	types.LevelConfidential: {
		Description: "Data requiring restricted access within the organization. Unauthorized disclosure could cause moderate harm.",
		Examples: []string{
			"salary_range", "performance_review_score", "unreleased_product_roadmap",
			"proprietary_algorithm_name", "business_strategy_document_id", "customer_segment_internal",
			"supplier_contract_id", "internal_audit_findings",
		},
	},
	types.LevelPII: {
		Description: "Personally Identifiable Information. Data that can directly or indirectly identify an individual. " +
			"Unauthorized disclosure could lead to significant harm (e.g., identity theft, privacy violation).",
		Examples: []string{
			"first_name", "last_name", "email_address", "phone_number", "home_address",
			"social_security_number", "date_of_birth", "passport_number", "driver_license_id",
			"national_id", "medical_record_number", "biometric_data", "ip_address_public",
			"user_id_hashed", "device_id",
		},
	},
	types.LevelFinanceCritical: {
		Description: "Data directly related to financial transactions, assets, or sensitive financial operations. " +
			"Unauthorized disclosure could lead to severe financial loss or fraud.",
		Examples: []string{
			"credit_card_number", "bank_account_number", "routing_number", "revenue_amount",
			"profit_margin", "transaction_value", "investment_portfolio_value", "loan_amount",
			"balance_sheet_item", "tax_id_number", "invoice_id", "payment_gateway_token",
		},
	},
}

// Merge overlays non-empty fields of override onto g and returns the result.
// Labels in override that are not classifiable levels are rejected.
func (g Guidance) Merge(override map[string]Entry) (Guidance, error) {
	out := make(Guidance, len(g))
	for k, v := range g {
		out[k] = v
	}
	for label, e := range override {
		lvl := types.ParseLevel(label)
		if lvl.Rank() > types.LevelFinanceCritical.Rank() {
			return nil, fmt.Errorf("taxonomy: %q is not a classifiable level", label)
		}
		cur := out[lvl]
		if strings.TrimSpace(e.Description) != "" {
			cur.Description = e.Description
		}
		if len(e.Examples) > 0 {
			cur.Examples = append([]string(nil), e.Examples...)
		}
		out[lvl] = cur
	}
	return out, nil
}

// Validate checks that every level has a description.
func (g Guidance) Validate(levels []types.SensitivityLevel) error {
	for _, l := range levels {
		if strings.TrimSpace(g[l].Description) == "" {
			return fmt.Errorf("taxonomy: missing description for %s", l)
		}
	}
	return nil
}

package model

// FeeType distinguishes flat-amount fees from percentage fees.
type FeeType string

const (
    FeeFlat       FeeType = "flat"       // fixed amount per order
    FeePercentage FeeType = "percentage" // percent of the post-discount subtotal
)

// FeeRule is a named charge from the externally managed fee schedule.
// Percentage fees are always computed against the post-discount subtotal,
// never the raw subtotal, and fees never compound on each other.
//
// Fields:
//  Name             - display name (e.g. "service_fee").
//  Type             - flat or percentage.
//  Value            - dollars for flat rules, percent for percentage rules.
//                     Always >= 0.
//  IsActive         - inactive rules are skipped entirely.
//  EnvironmentScope - which deployment environment the rule applies to.
type FeeRule struct {
    Name             string  // fee_rules.name
    Type             FeeType // fee_rules.fee_type
    Value            float64 // fee_rules.value
    IsActive         bool    // fee_rules.is_active
    EnvironmentScope string  // fee_rules.environment_scope
}

// FeeCalculation is one computed fee line inside an OrderSummary.
type FeeCalculation struct {
    Name        string `json:"name"`
    AmountCents int64  `json:"amount_cents"`
}

package budgetwatch

import (
	"time"

	"github.com/shopspring/decimal"
)

// Milliunits is the integer currency representation used by the remote API:
// 1/1000 of the display currency's unit. Conversion to decimal currency
// happens only at the presentation boundary.
type Milliunits int64

// Decimal converts a milliunit amount to a decimal currency value.
func (m Milliunits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -3)
}

// AccountType is the remote API's account type enumeration
type AccountType string

const (
	AccountTypeChecking       AccountType = "checking"
	AccountTypeSavings        AccountType = "savings"
	AccountTypeCash           AccountType = "cash"
	AccountTypeCreditCard     AccountType = "creditCard"
	AccountTypeLineOfCredit   AccountType = "lineOfCredit"
	AccountTypeOtherAsset     AccountType = "otherAsset"
	AccountTypeOtherLiability AccountType = "otherLiability"
	AccountTypeMortgage       AccountType = "mortgage"
	AccountTypeAutoLoan       AccountType = "autoLoan"
	AccountTypeStudentLoan    AccountType = "studentLoan"
	AccountTypePersonalLoan   AccountType = "personalLoan"
	AccountTypeMedicalDebt    AccountType = "medicalDebt"
	AccountTypeOtherDebt      AccountType = "otherDebt"
)

// Account represents a budget account. CreditLimit, APR and DueDay are not
// remote fields; they are merged in from the user edit store when present.
type Account struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Type             AccountType `json:"type"`
	OnBudget         bool        `json:"on_budget"`
	Closed           bool        `json:"closed"`
	Deleted          bool        `json:"deleted"`
	Balance          Milliunits  `json:"balance"`
	ClearedBalance   Milliunits  `json:"cleared_balance"`
	UnclearedBalance Milliunits  `json:"uncleared_balance"`

	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	APR         *decimal.Decimal `json:"apr,omitempty"`
	DueDay      *int             `json:"due_day,omitempty"`
}

// Clone returns a copy of the account. The user-edit pointers are copied as
// pointers; setters always replace rather than mutate the pointed-to value.
func (a *Account) Clone() *Account {
	clone := *a
	return &clone
}

// Category represents a budget category, flattened out of its group.
type Category struct {
	ID                     string     `json:"id"`
	CategoryGroupID        string     `json:"category_group_id"`
	CategoryGroupName      string     `json:"category_group_name,omitempty"`
	Name                   string     `json:"name"`
	Hidden                 bool       `json:"hidden"`
	Deleted                bool       `json:"deleted"`
	Budgeted               Milliunits `json:"budgeted"`
	Activity               Milliunits `json:"activity"`
	Balance                Milliunits `json:"balance"`
	GoalType               string     `json:"goal_type,omitempty"`
	GoalTarget             Milliunits `json:"goal_target,omitempty"`
	GoalPercentageComplete int        `json:"goal_percentage_complete,omitempty"`
	GoalOverallLeft        Milliunits `json:"goal_overall_left,omitempty"`
}

// CategoryGroup is the grouped shape the categories endpoint returns.
type CategoryGroup struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Hidden     bool        `json:"hidden"`
	Deleted    bool        `json:"deleted"`
	Categories []*Category `json:"categories"`
}

// Cleared states for transactions
const (
	ClearedCleared    = "cleared"
	ClearedUncleared  = "uncleared"
	ClearedReconciled = "reconciled"
)

// Transaction represents a single budget transaction.
type Transaction struct {
	ID                     string     `json:"id"`
	Date                   Date       `json:"date"`
	Amount                 Milliunits `json:"amount"`
	Memo                   string     `json:"memo,omitempty"`
	Cleared                string     `json:"cleared"`
	Approved               bool       `json:"approved"`
	AccountID              string     `json:"account_id"`
	AccountName            string     `json:"account_name,omitempty"`
	PayeeID                string     `json:"payee_id,omitempty"`
	PayeeName              string     `json:"payee_name,omitempty"`
	CategoryID             string     `json:"category_id,omitempty"`
	CategoryName           string     `json:"category_name,omitempty"`
	ScheduledTransactionID string     `json:"scheduled_transaction_id,omitempty"`
	Deleted                bool       `json:"deleted"`
}

// Month holds the month-level aggregates plus the per-category balances for
// that month.
type Month struct {
	Month        Date        `json:"month"`
	Budgeted     Milliunits  `json:"budgeted"`
	Activity     Milliunits  `json:"activity"`
	ToBeBudgeted Milliunits  `json:"to_be_budgeted"`
	AgeOfMoney   int         `json:"age_of_money"`
	Categories   []*Category `json:"categories"`
}

// BudgetInfo is the summary shape returned by the budgets listing.
type BudgetInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LastModifiedOn string `json:"last_modified_on,omitempty"`
}

// BudgetDetail is the shape returned by the budget detail endpoint.
type BudgetDetail struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LastModifiedOn string `json:"last_modified_on,omitempty"`
}

// Status is the connection health enumeration published to consumers.
type Status string

const (
	StatusUnknown            Status = "Unknown"
	StatusConnected          Status = "Connected"
	StatusRateLimited        Status = "Rate Limited"
	StatusUnauthorized       Status = "Unauthorized"
	StatusServiceUnavailable Status = "Service Unavailable"
	StatusAPIError           Status = "API Error"
)

// APIStatus is the per-budget-connection health record.
type APIStatus struct {
	Status                Status `json:"status"`
	LastError             string `json:"last_error"`
	LastErrorTime         string `json:"last_error_time"`
	ConsecutiveFailures   int    `json:"consecutive_failures"`
	LastSuccessfulRequest string `json:"last_successful_request"`
	RequestsMadeTotal     int64  `json:"requests_made_total"`
	RequestsThisHour      int    `json:"requests_this_hour"`
	EstimatedRemaining    int    `json:"estimated_remaining"`
	RateLimitResetsAt     string `json:"rate_limit_resets_at"`
	IsAtLimit             bool   `json:"is_at_limit"`
}

// NewAPIStatus returns the initial health record for a connection that has
// never polled.
func NewAPIStatus() APIStatus {
	return APIStatus{
		Status:                StatusUnknown,
		LastError:             "None",
		LastErrorTime:         "Never",
		LastSuccessfulRequest: "Never",
		EstimatedRemaining:    hourlyRequestEstimate,
		RateLimitResetsAt:     "Unknown",
	}
}

// QuotaInfo is a point-in-time view of the shared request quota.
type QuotaInfo struct {
	RequestsMadeTotal  int64     `json:"requests_made_total"`
	RequestsThisHour   int       `json:"requests_this_hour"`
	EstimatedRemaining int       `json:"estimated_remaining"`
	RateLimitResetsAt  time.Time `json:"rate_limit_resets_at"`
}

// BudgetSnapshot is the unit of published state: the full merged, filtered,
// derived-metric result of one refresh cycle.
type BudgetSnapshot struct {
	BudgetID   string `json:"budget_id"`
	BudgetName string `json:"budget_name,omitempty"`

	Accounts       []*Account     `json:"accounts"`
	Categories     []*Category    `json:"categories"`
	MonthlySummary *Month         `json:"monthly_summary"`
	Transactions   []*Transaction `json:"transactions"`

	UnapprovedTransactions int `json:"unapproved_transactions"`
	UnclearedTransactions  int `json:"uncleared_transactions"`
	OverspentCategories    int `json:"overspent_categories"`
	NeedsAttentionCount    int `json:"needs_attention_count"`

	LastSuccessfulPoll string    `json:"last_successful_poll"`
	APIStatus          APIStatus `json:"api_status"`
}

// NeverPolled is the LastSuccessfulPoll value of a snapshot that has never
// seen a successful cycle.
const NeverPolled = "Never"

// NewEmptySnapshot returns the explicit all-empty snapshot published when no
// prior data exists anywhere.
func NewEmptySnapshot(budgetID, budgetName string) *BudgetSnapshot {
	return &BudgetSnapshot{
		BudgetID:           budgetID,
		BudgetName:         budgetName,
		Accounts:           []*Account{},
		Categories:         []*Category{},
		Transactions:       []*Transaction{},
		LastSuccessfulPoll: NeverPolled,
		APIStatus:          NewAPIStatus(),
	}
}

// Clone returns a copy of the snapshot. Business-data slices are shared, not
// copied: published snapshots are treated as immutable by consumers, and the
// republish paths that modify accounts clone those elements first.
func (s *BudgetSnapshot) Clone() *BudgetSnapshot {
	clone := *s
	return &clone
}

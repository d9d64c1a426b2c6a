package budgetwatch

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBudgetAPI is a testify mock of the BudgetAPI interface.
type MockBudgetAPI struct {
	mock.Mock
}

func (m *MockBudgetAPI) GetBudget(ctx context.Context, budgetID string) (*BudgetDetail, error) {
	args := m.Called(ctx, budgetID)
	var budget *BudgetDetail
	if v := args.Get(0); v != nil {
		budget = v.(*BudgetDetail)
	}
	return budget, args.Error(1)
}

func (m *MockBudgetAPI) GetAccounts(ctx context.Context, budgetID string) ([]*Account, error) {
	args := m.Called(ctx, budgetID)
	var accounts []*Account
	if v := args.Get(0); v != nil {
		accounts = v.([]*Account)
	}
	return accounts, args.Error(1)
}

func (m *MockBudgetAPI) GetCategories(ctx context.Context, budgetID string) ([]*CategoryGroup, error) {
	args := m.Called(ctx, budgetID)
	var groups []*CategoryGroup
	if v := args.Get(0); v != nil {
		groups = v.([]*CategoryGroup)
	}
	return groups, args.Error(1)
}

func (m *MockBudgetAPI) GetMonth(ctx context.Context, budgetID, month string) (*Month, error) {
	args := m.Called(ctx, budgetID, month)
	var detail *Month
	if v := args.Get(0); v != nil {
		detail = v.(*Month)
	}
	return detail, args.Error(1)
}

func (m *MockBudgetAPI) GetTransactions(ctx context.Context, budgetID string) ([]*Transaction, error) {
	args := m.Called(ctx, budgetID)
	var transactions []*Transaction
	if v := args.Get(0); v != nil {
		transactions = v.([]*Transaction)
	}
	return transactions, args.Error(1)
}

func (m *MockBudgetAPI) Quota() QuotaInfo {
	args := m.Called()
	return args.Get(0).(QuotaInfo)
}

package cashctrl

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is a remote ledger account record.
type Account struct {
	ID              int             `json:"id"`
	Number          decimal.Decimal `json:"number"`
	Name            string          `json:"name"`
	CategoryID      int             `json:"categoryId"`
	CategoryDisplay string          `json:"categoryDisplay"`
	AccountClass    string          `json:"accountClass"`
	CurrencyID      *int            `json:"currencyId"`
	CurrencyCode    string          `json:"currencyCode"`
	TaxID           *int            `json:"taxId"`
	TaxName         string          `json:"taxName"`
	Notes           string          `json:"notes"`
	OpeningAmount   decimal.Decimal `json:"openingAmount"`
	EndAmount       decimal.Decimal `json:"endAmount"`
	IsInactive      bool            `json:"isInactive"`
	Created         Timestamp       `json:"created"`
	LastUpdated     Timestamp       `json:"lastUpdated"`
}

// ListAccounts lists remote accounts with their attributes.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var response struct {
		Data []Account `json:"data"`
	}
	if err := c.Get(ctx, "account/list.json", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// AccountIDByNumber resolves an account number to its remote id. Errors
// when the number is unknown or ambiguous.
func (c *Client) AccountIDByNumber(ctx context.Context, number decimal.Decimal) (int, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	id := 0
	found := 0
	for _, account := range accounts {
		if account.Number.Equal(number) {
			id = account.ID
			found++
		}
	}
	switch found {
	case 0:
		return 0, fmt.Errorf("no account found for number %s", number)
	case 1:
		return id, nil
	default:
		return 0, fmt.Errorf("multiple accounts found for number %s", number)
	}
}

// AccountNumberByID resolves a remote account id to its number. Errors when
// the id is unknown or ambiguous.
func (c *Client) AccountNumberByID(ctx context.Context, id int) (decimal.Decimal, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	var number decimal.Decimal
	found := 0
	for _, account := range accounts {
		if account.ID == id {
			number = account.Number
			found++
		}
	}
	switch found {
	case 0:
		return decimal.Decimal{}, fmt.Errorf("no account found for id %d", id)
	case 1:
		return number, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("multiple accounts found for id %d", id)
	}
}

package request

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type InitiateRequest struct {
	PhoneNumber      PhoneNumber      `json:"phoneNumber"`
	Amount           *decimal.Decimal `json:"amount"`
	AccountReference string           `json:"accountReference"`
	TransactionDesc  string           `json:"transactionDesc"`
}

// PhoneNumber accepts a JSON string or number.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PhoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PhoneNumber(n.String())
	return nil
}

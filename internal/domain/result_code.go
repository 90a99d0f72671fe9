package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResultCode accepts both JSON numbers and strings. The gateway sends
// numbers in callbacks and strings in query responses.
type ResultCode string

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ResultCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("result code: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*c = ResultCode(strconv.FormatInt(i, 10))
		return nil
	}
	*c = ResultCode(n.String())
	return nil
}

func (c ResultCode) String() string { return string(c) }

package daraja

import "github.com/LavaJover/shvark-stkpush-service/internal/domain"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type pushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type pushResponse struct {
	MerchantRequestID   string            `json:"MerchantRequestID"`
	CheckoutRequestID   string            `json:"CheckoutRequestID"`
	ResponseCode        domain.ResultCode `json:"ResponseCode"`
	ResponseDescription string            `json:"ResponseDescription"`
	CustomerMessage     string            `json:"CustomerMessage"`
}

type queryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type queryResponse struct {
	ResponseCode        domain.ResultCode `json:"ResponseCode"`
	ResponseDescription string            `json:"ResponseDescription"`
	MerchantRequestID   string            `json:"MerchantRequestID"`
	CheckoutRequestID   string            `json:"CheckoutRequestID"`
	ResultCode          domain.ResultCode `json:"ResultCode"`
	ResultDesc          string            `json:"ResultDesc"`
}

// errorResponse is the body Daraja sends with non-2xx statuses.
type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	// the OAuth endpoint uses snake case
	OAuthErrorMessage string `json:"error_message"`
}

func (e errorResponse) message() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.OAuthErrorMessage
}

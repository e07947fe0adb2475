package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils"
)

type (
	// GatewayResult is the provider's answer to a charge or a status lookup.
	// PayPal hands control to a redirect flow, so its charge result is
	// pending with an approval URL instead of an immediate settlement.
	GatewayResult struct {
		TransactionID string
		Status        string
		ApprovalURL   string
		FailureReason string
	}

	Gateway interface {
		Name() string
		Charge(ctx context.Context, orderID string, amount float64, currency string, data domain.PaymentData) (*GatewayResult, error)
		// FetchStatus re-reads a previously created charge from the
		// provider; redirect and asynchronous flows settle through it.
		FetchStatus(ctx context.Context, transactionID string) (*GatewayResult, error)
	}

	stripeGateway struct {
		client *http.Client
	}

	paypalGateway struct {
		client *http.Client
	}

	mtnGateway struct {
		client *http.Client
	}
)

func NewStripeGateway() Gateway {
	return &stripeGateway{client: &http.Client{Timeout: 30 * time.Second}}
}

func NewPaypalGateway() Gateway {
	return &paypalGateway{client: &http.Client{Timeout: 30 * time.Second}}
}

func NewMTNGateway() Gateway {
	return &mtnGateway{client: &http.Client{Timeout: 30 * time.Second}}
}

func (g *stripeGateway) Name() string { return domain.GatewayStripe }

func (g *stripeGateway) Charge(ctx context.Context, orderID string, amount float64, currency string, data domain.PaymentData) (*GatewayResult, error) {
	payload := map[string]interface{}{
		"amount":      amount,
		"currency":    currency,
		"description": fmt.Sprintf("prescription order %s", orderID),
		"card": map[string]interface{}{
			"number":    data.CardNumber,
			"name":      data.CardholderName,
			"exp_month": data.ExpiryMonth,
			"exp_year":  data.ExpiryYear,
			"cvc":       data.CVV,
		},
	}

	var result struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	declined, err := postJSON(ctx, g.client, utils.GetConfig("STRIPE_API_URL")+"/charges", utils.GetConfig("STRIPE_SECRET_KEY"), payload, &result)
	if err != nil {
		return nil, err
	}
	if declined || result.Status != "succeeded" {
		msg := result.Message
		if msg == "" {
			msg = "charge was not accepted"
		}
		return nil, &domain.GatewayDeclinedError{Gateway: domain.GatewayStripe, Message: msg}
	}

	return &GatewayResult{
		TransactionID: result.ID,
		Status:        domain.PaymentStatusSucceeded,
	}, nil
}

func (g *stripeGateway) FetchStatus(ctx context.Context, transactionID string) (*GatewayResult, error) {
	var result struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	declined, err := getJSON(ctx, g.client, utils.GetConfig("STRIPE_API_URL")+"/charges/"+transactionID, utils.GetConfig("STRIPE_SECRET_KEY"), &result)
	if err != nil {
		return nil, err
	}

	out := &GatewayResult{TransactionID: transactionID}
	switch {
	case declined || result.Status == "failed":
		out.Status = domain.PaymentStatusFailed
		out.FailureReason = result.Message
	case result.Status == "succeeded":
		out.Status = domain.PaymentStatusSucceeded
	default:
		out.Status = domain.PaymentStatusPending
	}
	return out, nil
}

func (g *paypalGateway) Name() string { return domain.GatewayPaypal }

func (g *paypalGateway) Charge(ctx context.Context, orderID string, amount float64, currency string, data domain.PaymentData) (*GatewayResult, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": orderID,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         fmt.Sprintf("%.2f", amount),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": data.ReturnURL,
		},
	}

	var result struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Links   []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	declined, err := postJSON(ctx, g.client, utils.GetConfig("PAYPAL_API_URL")+"/v2/checkout/orders", utils.GetConfig("PAYPAL_SECRET"), payload, &result)
	if err != nil {
		return nil, err
	}
	if declined {
		msg := result.Message
		if msg == "" {
			msg = "order creation was refused"
		}
		return nil, &domain.GatewayDeclinedError{Gateway: domain.GatewayPaypal, Message: msg}
	}

	approvalURL := ""
	for _, link := range result.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
		}
	}

	// Settlement happens after the buyer approves on PayPal's side; the
	// attempt stays pending until then.
	return &GatewayResult{
		TransactionID: result.ID,
		Status:        domain.PaymentStatusPending,
		ApprovalURL:   approvalURL,
	}, nil
}

func (g *paypalGateway) FetchStatus(ctx context.Context, transactionID string) (*GatewayResult, error) {
	base := utils.GetConfig("PAYPAL_API_URL") + "/v2/checkout/orders/" + transactionID
	secret := utils.GetConfig("PAYPAL_SECRET")

	var result struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	declined, err := getJSON(ctx, g.client, base, secret, &result)
	if err != nil {
		return nil, err
	}
	if declined {
		return &GatewayResult{
			TransactionID: transactionID,
			Status:        domain.PaymentStatusFailed,
			FailureReason: result.Message,
		}, nil
	}

	switch result.Status {
	case "COMPLETED":
		return &GatewayResult{TransactionID: transactionID, Status: domain.PaymentStatusSucceeded}, nil
	case "APPROVED":
		// The buyer approved on PayPal's side; capturing settles the funds.
		var capture struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		declined, err := postJSON(ctx, g.client, base+"/capture", secret, map[string]interface{}{}, &capture)
		if err != nil {
			return nil, err
		}
		if declined || capture.Status != "COMPLETED" {
			msg := capture.Message
			if msg == "" {
				msg = "capture was refused"
			}
			return &GatewayResult{
				TransactionID: transactionID,
				Status:        domain.PaymentStatusFailed,
				FailureReason: msg,
			}, nil
		}
		return &GatewayResult{TransactionID: transactionID, Status: domain.PaymentStatusSucceeded}, nil
	case "VOIDED":
		return &GatewayResult{
			TransactionID: transactionID,
			Status:        domain.PaymentStatusFailed,
			FailureReason: "checkout was voided",
		}, nil
	default:
		// CREATED or PAYER_ACTION_REQUIRED: the buyer has not approved yet.
		return &GatewayResult{TransactionID: transactionID, Status: domain.PaymentStatusPending}, nil
	}
}

func (g *mtnGateway) Name() string { return domain.GatewayMTN }

func (g *mtnGateway) Charge(ctx context.Context, orderID string, amount float64, currency string, data domain.PaymentData) (*GatewayResult, error) {
	payload := map[string]interface{}{
		"amount":       fmt.Sprintf("%.2f", amount),
		"currency":     currency,
		"externalId":   orderID,
		"payerMessage": "PharmaRx prescription payment",
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     data.PhoneNumber,
		},
	}

	var result struct {
		ReferenceID string `json:"referenceId"`
		Status      string `json:"status"`
		Reason      string `json:"reason"`
	}
	declined, err := postJSON(ctx, g.client, utils.GetConfig("MTN_MOMO_API_URL")+"/collection/v1_0/requesttopay", utils.GetConfig("MTN_MOMO_API_KEY"), payload, &result)
	if err != nil {
		return nil, err
	}
	if declined || result.Status == "FAILED" {
		msg := result.Reason
		if msg == "" {
			msg = "request to pay was refused"
		}
		return nil, &domain.GatewayDeclinedError{Gateway: domain.GatewayMTN, Message: msg}
	}

	return &GatewayResult{
		TransactionID: result.ReferenceID,
		Status:        domain.PaymentStatusSucceeded,
	}, nil
}

func (g *mtnGateway) FetchStatus(ctx context.Context, transactionID string) (*GatewayResult, error) {
	var result struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	declined, err := getJSON(ctx, g.client, utils.GetConfig("MTN_MOMO_API_URL")+"/collection/v1_0/requesttopay/"+transactionID, utils.GetConfig("MTN_MOMO_API_KEY"), &result)
	if err != nil {
		return nil, err
	}

	out := &GatewayResult{TransactionID: transactionID}
	switch {
	case declined || result.Status == "FAILED":
		out.Status = domain.PaymentStatusFailed
		out.FailureReason = result.Reason
	case result.Status == "SUCCESSFUL":
		out.Status = domain.PaymentStatusSucceeded
	default:
		out.Status = domain.PaymentStatusPending
	}
	return out, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, apiKey string, payload interface{}, out interface{}) (bool, error) {
	return doJSON(ctx, client, http.MethodPost, url, apiKey, payload, out)
}

func getJSON(ctx context.Context, client *http.Client, url string, apiKey string, out interface{}) (bool, error) {
	return doJSON(ctx, client, http.MethodGet, url, apiKey, nil, out)
}

// doJSON performs an authenticated JSON call against a provider. A 4xx
// answer is a decline (the body is still decoded for the provider message);
// transport failures and 5xx answers surface as ErrExternalService so the
// caller can retry without a recorded decline.
func doJSON(ctx context.Context, client *http.Client, method string, url string, apiKey string, payload interface{}, out interface{}) (declined bool, err error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return false, err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("%w: gateway returned %s - %s", domain.ErrExternalService, resp.Status, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	return resp.StatusCode >= http.StatusBadRequest, nil
}

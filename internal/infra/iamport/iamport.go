// Package iamport is a client for the iamport payment gateway REST API.
//
// Every endpoint answers with the same envelope:
//
//	{"code": 0, "message": "...", "response": {...}}
//
// code 0 is success; any other code is an application-level rejection from the
// provider and surfaces as *Error. Non-200 statuses, empty bodies and broken
// JSON are transport failures and surface as ordinary wrapped errors, so the
// two classes stay distinguishable with errors.As.
package iamport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenHeader carries the bearer token obtained from /users/getToken.
const TokenHeader = "X-ImpTokenHeader"

// Error is an application-level rejection from the gateway (invalid card,
// insufficient funds, ...). Code and Message come verbatim from the envelope.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("iamport: %d: %s", e.Code, e.Message)
}

type envelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

// Confirmation is the authoritative payment record the gateway holds for a
// merchant_uid. A charge call's immediate response is never trusted for the
// amount; callers re-fetch the confirmation with FindByMerchantUID.
type Confirmation struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	PgTID       string `json:"pg_tid"`
	Amount      int    `json:"amount"`
	Status      string `json:"status"`
	PayMethod   string `json:"pay_method"`
	FailReason  string `json:"fail_reason"`
	VbankName   string `json:"vbank_name"`
	VbankNum    string `json:"vbank_num"`
	VbankDate   string `json:"vbank_date"`
	VbankHolder string `json:"vbank_holder"`
}

// PaidEntry is one row of the gateway's paid-transaction listing.
type PaidEntry struct {
	MerchantUID string `json:"merchant_uid"`
	BuyerEmail  string `json:"buyer_email"`
}

type Client struct {
	baseURL     string
	accessToken string
	hc          *http.Client
}

// GetAccessToken authenticates with the gateway and returns a bearer token.
func GetAccessToken(ctx context.Context, baseURL, apiKey, apiSecret string) (string, error) {
	form := url.Values{}
	form.Set("imp_key", apiKey)
	form.Set("imp_secret", apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/users/getToken", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("getAccessToken: http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return "", fmt.Errorf("getAccessToken: hc.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("getAccessToken: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("getAccessToken: json.Decode: %w", err)
	}
	if env.Code != 0 {
		return "", &Error{Code: env.Code, Message: env.Message}
	}

	var reply struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Response, &reply); err != nil {
		return "", fmt.Errorf("getAccessToken: json.Unmarshal: %w", err)
	}
	if reply.AccessToken == "" {
		return "", fmt.Errorf("getAccessToken: response missing access_token")
	}

	return reply.AccessToken, nil
}

// NewClient wraps an already-obtained access token.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Connect authenticates and returns a ready client.
func Connect(ctx context.Context, baseURL, apiKey, apiSecret string) (*Client, error) {
	token, err := GetAccessToken(ctx, baseURL, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return NewClient(baseURL, token), nil
}

// ChargeParams are the fields of a one-time card charge. Card data passes
// through to the gateway; nothing card-scoped is kept on our side.
type ChargeParams struct {
	Token       string
	MerchantUID string
	Amount      int
	Vat         int
	CardNumber  string
	Expiry      string
	Birth       string
	Pwd2Digit   string
	Name        string
	CustomerUID string
	BuyerName   string
	BuyerEmail  string
	BuyerTel    string
}

func (p *ChargeParams) form(foreign bool) url.Values {
	form := url.Values{}
	form.Set("token", p.Token)
	form.Set("merchant_uid", p.MerchantUID)
	form.Set("amount", strconv.Itoa(p.Amount))
	form.Set("vat", strconv.Itoa(p.Vat))
	form.Set("card_number", p.CardNumber)
	form.Set("expiry", p.Expiry)
	form.Set("name", p.Name)
	form.Set("buyer_name", p.BuyerName)
	form.Set("buyer_email", p.BuyerEmail)
	form.Set("buyer_tel", p.BuyerTel)
	if !foreign {
		// domestic-only card holder fields
		form.Set("birth", p.Birth)
		form.Set("pwd_2digit", p.Pwd2Digit)
		form.Set("customer_uid", p.CustomerUID)
	}
	return form
}

// Onetime charges a domestic card.
func (c *Client) Onetime(ctx context.Context, p *ChargeParams) (*Confirmation, error) {
	return c.postConfirmation(ctx, "/subscribe/payments/onetime/", p.form(false))
}

// Foreign charges a non-domestic card.
func (c *Client) Foreign(ctx context.Context, p *ChargeParams) (*Confirmation, error) {
	return c.postConfirmation(ctx, "/subscribe/payments/foreign/", p.form(true))
}

// Cancel voids the payment identified by merchant_uid.
func (c *Client) Cancel(ctx context.Context, merchantUID, reason string) (*Confirmation, error) {
	form := url.Values{}
	form.Set("merchant_uid", merchantUID)
	form.Set("reason", reason)
	return c.postConfirmation(ctx, "/payments/cancel/", form)
}

// FindByMerchantUID fetches the authoritative confirmation for a transaction.
func (c *Client) FindByMerchantUID(ctx context.Context, merchantUID string) (*Confirmation, error) {
	response, err := c.get(ctx, "/payments/find/"+merchantUID, nil)
	if err != nil {
		return nil, err
	}
	var confirm Confirmation
	if err := json.Unmarshal(response, &confirm); err != nil {
		return nil, fmt.Errorf("findByMerchantUID: json.Unmarshal: %w", err)
	}
	return &confirm, nil
}

// GetPaidList fetches every paid transaction in [since, until], following the
// gateway's pagination until it signals the last page with next == 0.
func (c *Client) GetPaidList(ctx context.Context, since, until time.Time) ([]PaidEntry, error) {
	query := url.Values{}
	query.Set("from", strconv.FormatInt(since.Unix(), 10))
	query.Set("to", strconv.FormatInt(until.Unix(), 10))

	var full []PaidEntry
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		response, err := c.get(ctx, "/payments/status/paid", query)
		if err != nil {
			return nil, err
		}

		var reply struct {
			List []PaidEntry `json:"list"`
			Next int         `json:"next"`
		}
		if err := json.Unmarshal(response, &reply); err != nil {
			return nil, fmt.Errorf("getPaidList: json.Unmarshal: %w", err)
		}

		full = append(full, reply.List...)
		if reply.Next == 0 {
			break
		}
	}
	return full, nil
}

func (c *Client) postConfirmation(ctx context.Context, path string, form url.Values) (*Confirmation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("post %s: http.NewRequestWithContext: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var confirm Confirmation
	if err := json.Unmarshal(response, &confirm); err != nil {
		return nil, fmt.Errorf("post %s: json.Unmarshal: %w", path, err)
	}
	return &confirm, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: http.NewRequestWithContext: %w", path, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set(TokenHeader, c.accessToken)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iamport: hc.Do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("iamport: io.ReadAll: %w", err)
	}
	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		return nil, fmt.Errorf("iamport: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("iamport: json.Unmarshal: %w", err)
	}
	if env.Code != 0 {
		return nil, &Error{Code: env.Code, Message: env.Message}
	}

	return env.Response, nil
}

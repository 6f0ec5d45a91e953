package iamport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/getToken", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "key", r.PostForm.Get("imp_key"))
		assert.Equal(t, "secret", r.PostForm.Get("imp_secret"))

		fmt.Fprint(w, `{"code":0,"message":"","response":{"access_token":"tok-123"}}`)
	}))
	defer srv.Close()

	token, err := GetAccessToken(context.Background(), srv.URL, "key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestGetAccessToken_ApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-1,"message":"bad credentials","response":null}`)
	}))
	defer srv.Close()

	_, err := GetAccessToken(context.Background(), srv.URL, "key", "wrong")
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, -1, gerr.Code)
	assert.Equal(t, "bad credentials", gerr.Message)
}

func TestGetAccessToken_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := GetAccessToken(context.Background(), srv.URL, "key", "secret")
	require.Error(t, err)

	var gerr *Error
	assert.False(t, errors.As(err, &gerr), "a non-200 must not look like a gateway rejection")
}

func TestFindByMerchantUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/find/abc123", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get(TokenHeader))

		fmt.Fprint(w, `{"code":0,"message":"","response":{
			"imp_uid":"imp_1","merchant_uid":"abc123","pg_tid":"tid_9",
			"amount":50000,"status":"paid","pay_method":"card"}}`)
	}))
	defer srv.Close()

	confirm, err := NewClient(srv.URL, "tok").FindByMerchantUID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", confirm.MerchantUID)
	assert.Equal(t, 50000, confirm.Amount)
	assert.Equal(t, "paid", confirm.Status)
	assert.Equal(t, "tid_9", confirm.PgTID)
}

func TestOnetime_GatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscribe/payments/onetime/", r.URL.Path)
		fmt.Fprint(w, `{"code":102,"message":"insufficient funds","response":null}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok").Onetime(context.Background(), &ChargeParams{
		MerchantUID: "m1",
		Amount:      1000,
		Birth:       "900101",
	})
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 102, gerr.Code)
	assert.Equal(t, "insufficient funds", gerr.Message)
}

func TestForeign_OmitsDomesticFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscribe/payments/foreign/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.False(t, r.PostForm.Has("birth"))
		assert.False(t, r.PostForm.Has("pwd_2digit"))
		assert.Equal(t, "m1", r.PostForm.Get("merchant_uid"))

		fmt.Fprint(w, `{"code":0,"message":"","response":{"merchant_uid":"m1","amount":1000,"status":"paid"}}`)
	}))
	defer srv.Close()

	confirm, err := NewClient(srv.URL, "tok").Foreign(context.Background(), &ChargeParams{
		MerchantUID: "m1",
		Amount:      1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", confirm.Status)
}

func TestCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/cancel/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "m1", r.PostForm.Get("merchant_uid"))
		assert.Equal(t, "Cancel by admin", r.PostForm.Get("reason"))

		fmt.Fprint(w, `{"code":0,"message":"","response":{"merchant_uid":"m1","status":"cancelled"}}`)
	}))
	defer srv.Close()

	confirm, err := NewClient(srv.URL, "tok").Cancel(context.Background(), "m1", "Cancel by admin")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", confirm.Status)
}

func TestGetPaidList_Paginates(t *testing.T) {
	pages := map[string]struct {
		list []PaidEntry
		next int
	}{
		"1": {[]PaidEntry{{MerchantUID: "m1", BuyerEmail: "a@x.kr"}, {MerchantUID: "m2", BuyerEmail: "b@x.kr"}}, 2},
		"2": {[]PaidEntry{{MerchantUID: "m3", BuyerEmail: "c@x.kr"}}, 3},
		"3": {[]PaidEntry{{MerchantUID: "m4", BuyerEmail: "d@x.kr"}}, 0},
	}

	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/status/paid", r.URL.Path)
		page := r.URL.Query().Get("page")
		requested = append(requested, page)

		p, ok := pages[page]
		require.True(t, ok, "unexpected page %s", page)

		resp := map[string]interface{}{
			"code": 0, "message": "",
			"response": map[string]interface{}{"list": p.list, "next": p.next},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	since := time.Date(2016, 1, 1, 0, 0, 0, 0, time.Local)
	list, err := NewClient(srv.URL, "tok").GetPaidList(context.Background(), since, time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, requested, "pagination must stop at next == 0")
	require.Len(t, list, 4)
	assert.Equal(t, "m1", list[0].MerchantUID)
	assert.Equal(t, "m4", list[3].MerchantUID)
}

func TestDo_EmptyBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with no body
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok").FindByMerchantUID(context.Background(), "m1")
	require.Error(t, err)

	var gerr *Error
	assert.False(t, errors.As(err, &gerr))
}

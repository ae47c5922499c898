package smssvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

func Test_gatewayService_Send(t *testing.T) {
	conf := *core.Conf
	conf.SMS.GatewayURL = "https://sms.test/v1/messages"
	conf.SMS.APIKey = "key"
	conf.SMS.Sender = "SCHOOL"
	svc := NewGatewayService(&conf)

	var calls []rest.Request
	status := http.StatusAccepted
	sendFunc = func(ctx context.Context, req rest.Request) (*rest.Response, error) {
		calls = append(calls, req)
		return &rest.Response{StatusCode: status, Body: `{"detail":"nope"}`}, nil
	}
	defer func() { sendFunc = sendRequest }()

	tests := []struct {
		name      string
		msg       core.SMSMessage
		status    int
		wantCalls int
		wantErr   bool
	}{
		{name: "no recipients", msg: core.SMSMessage{Body: "hi"}, status: http.StatusAccepted, wantCalls: 0},
		{name: "sent", msg: core.SMSMessage{To: []string{"+923001234567", "+923111234567"}, Body: "hi"}, status: http.StatusAccepted, wantCalls: 1},
		{name: "rejected", msg: core.SMSMessage{To: []string{"+923001234567"}, Body: "hi"}, status: http.StatusUnauthorized, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			status = tt.status
			err := svc.Send(context.Background(), tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, calls, tt.wantCalls)
			if tt.wantCalls == 0 {
				return
			}

			req := calls[0]
			assert.Equal(t, rest.Post, req.Method)
			assert.Equal(t, conf.SMS.GatewayURL, req.BaseURL)
			assert.Equal(t, "Bearer key", req.Headers["Authorization"])

			var payload gatewayPayload
			require.NoError(t, json.Unmarshal(req.Body, &payload))
			assert.Equal(t, tt.msg.To, payload.To)
			assert.Equal(t, tt.msg.Body, payload.Message)
			assert.Equal(t, "SCHOOL", payload.Sender)
		})
	}
}

func Test_sendRequest(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := ioutil.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"queued":true}`))
	}))
	defer srv.Close()

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: srv.URL,
		Headers: map[string]string{"Authorization": "Bearer key"},
		Body:    []byte(`{"to":["+923001234567"]}`),
	}

	res, err := sendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, `{"queued":true}`, res.Body)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, `{"to":["+923001234567"]}`, gotBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sendRequest(ctx, req)
	assert.Error(t, err)
}

package smssvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

var sendFunc = sendRequest // mockable

// sendRequest is rest.Send bound to ctx.
func sendRequest(ctx context.Context, request rest.Request) (*rest.Response, error) {
	req, err := rest.BuildRequestObject(request)
	if err != nil {
		return nil, err
	}
	res, err := rest.DefaultClient.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}

type gatewayService struct {
	url    string
	apiKey string
	sender string
}

var _ core.SMSService = (*gatewayService)(nil)

// NewGatewayService sends group messages through an HTTP SMS gateway.
func NewGatewayService(conf *core.Config) core.SMSService {
	vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SMS.GatewayURL, "sms.gatewayURL"),
		vala.StringNotEmpty(conf.SMS.APIKey, "sms.apiKey"),
	).CheckAndPanic()

	return &gatewayService{
		url:    conf.SMS.GatewayURL,
		apiKey: conf.SMS.APIKey,
		sender: conf.SMS.Sender,
	}
}

type gatewayPayload struct {
	Sender  string   `json:"sender,omitempty"`
	To      []string `json:"to"`
	Message string   `json:"message"`
}

func (svc gatewayService) Send(ctx context.Context, msg core.SMSMessage) error {
	if len(msg.To) == 0 {
		return nil
	}

	body, err := json.Marshal(gatewayPayload{Sender: svc.sender, To: msg.To, Message: msg.Body})
	if err != nil {
		return errors.Wrap(err, "encoding sms payload")
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url,
		Headers: map[string]string{
			"Authorization": "Bearer " + svc.apiKey,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
		Body: body,
	}

	res, err := sendFunc(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending sms")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.New(fmt.Sprintf("sending sms - status: %d - body: %s", res.StatusCode, res.Body))
	}
	return nil
}

package smssvc

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

type consoleService struct {
	std *log.Logger
}

var _ core.SMSService = (*consoleService)(nil)

// NewConsoleService prints messages instead of sending them.
func NewConsoleService(std *log.Logger) core.SMSService {
	return &consoleService{std: std}
}

func (svc consoleService) Send(ctx context.Context, msg core.SMSMessage) error {
	if len(msg.To) == 0 {
		return nil
	}
	svc.std.Printf("SMS to %s:\n%s", strings.Join(msg.To, ", "), msg.Body)
	return nil
}

// ServiceMock records the messages it is given and fails with Err when set.
type ServiceMock struct {
	Err error

	mu   sync.Mutex
	sent []core.SMSMessage
}

var _ core.SMSService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{}
}

func (svc *ServiceMock) Send(ctx context.Context, msg core.SMSMessage) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return svc.Err
	}
	svc.sent = append(svc.sent, msg)
	return nil
}

func (svc *ServiceMock) SentMessages() []core.SMSMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.SMSMessage(nil), svc.sent...)
}

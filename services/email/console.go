package emailsvc

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

type consoleService struct {
	std        *log.Logger
	from       mail.Address
	subjPrefix string
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints MIME messages to std instead of sending them.
func NewConsoleService(std *log.Logger, conf *core.Config) core.EmailService {
	return &consoleService{
		std:        std,
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *consoleService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	return sendAll(ctx, messages, svc.sendMessage)
}

// sendAll renders and sends messages concurrently, skipping those without recipients or content.
func sendAll(ctx context.Context, messages []*core.EmailMessage, send func(context.Context, core.EmailMessage) error) error {
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, msg := range messages {
		wg.Add(1)
		go func(msg *core.EmailMessage) {
			defer wg.Done()
			err := msg.Render()
			if err == nil && msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				err = send(ctx, *msg)
			}
			if err != nil {
				once.Do(func() { firstErr = errors.Wrapf(err, "sending %q", msg.Subject) })
			}
		}(msg)
	}
	wg.Wait()
	return firstErr
}

func (svc *consoleService) sendMessage(ctx context.Context, msg core.EmailMessage) error {
	if svc.std == nil {
		return nil
	}
	body, err := svc.format(msg)
	if err != nil {
		return err
	}
	svc.std.Println(body)
	return nil
}

type mimePart struct {
	header  textproto.MIMEHeader
	content string
}

func (svc *consoleService) format(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	}

	mixedW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())

	parts := []mimePart{
		{textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}}, msg.TextContent},
	}
	if msg.HTMLContent != "" {
		parts = append(parts, mimePart{textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}}, msg.HTMLContent})
	}
	for _, at := range msg.Attachments {
		parts = append(parts, mimePart{textproto.MIMEHeader{
			"Content-Type":              {at.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {"attachment; filename=" + at.Filename},
		}, at.Content.String()})
	}

	for _, p := range parts {
		w, err := mixedW.CreatePart(p.header)
		if err != nil {
			return "", errors.Wrap(err, "creating "+p.header.Get("Content-Type")+" part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", p.content)
	}
	if err := mixedW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart message")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock keeps rendered messages in memory.
type ConsoleServiceMock struct {
	consoleService

	mu   sync.Mutex
	sent []core.EmailMessage
}

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			from:       conf.DefaultFromEmail(),
			subjPrefix: "[" + conf.AppName + "] ",
		},
	}
}

func (svc *ConsoleServiceMock) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	return sendAll(ctx, messages, func(ctx context.Context, msg core.EmailMessage) error {
		if _, err := svc.format(msg); err != nil {
			return err
		}
		svc.mu.Lock()
		svc.sent = append(svc.sent, msg)
		svc.mu.Unlock()
		return nil
	})
}

func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"

	"storyfeed/internal/config"
	"storyfeed/internal/logging"
	"storyfeed/internal/queue"
)

// Sender delivers one chunk artifact to the reading device.
type Sender interface {
	Send(ctx context.Context, chunk *queue.DeliverableChunk, artifactPath string) error
}

// NewSender returns the SMTP sender, or a log-only sender in test mode.
func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.Delivery.TestMode {
		return &testSender{logger: logging.WithComponent(orNop(logger), "delivery")}
	}
	return &smtpSender{cfg: cfg.Delivery}
}

func orNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}

// smtpSender emails the artifact to the device address, one chunk per
// message, the way Kindle's send-to-device inbox expects.
type smtpSender struct {
	cfg config.Delivery
}

func (s *smtpSender) Send(ctx context.Context, chunk *queue.DeliverableChunk, artifactPath string) error {
	if strings.TrimSpace(s.cfg.DeviceEmail) == "" {
		return fmt.Errorf("no device email configured")
	}
	from := strings.TrimSpace(s.cfg.FromAddress)
	if from == "" {
		from = s.cfg.SMTPUser
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(s.cfg.DeviceEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(deliverySubject(chunk))
	msg.SetBodyString(mail.TypeTextPlain, deliveryBody(chunk))
	msg.AttachFile(artifactPath)

	client, err := mail.NewClient(
		s.cfg.SMTPHost,
		mail.WithPort(s.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTPUser),
		mail.WithPassword(s.cfg.SMTPPassword),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send chunk email: %w", err)
	}
	return nil
}

// testSender logs what would have been sent. Useful while tuning chunk sizes
// without spamming a real device.
type testSender struct {
	logger *slog.Logger
}

func (s *testSender) Send(ctx context.Context, chunk *queue.DeliverableChunk, artifactPath string) error {
	size := int64(0)
	if info, err := os.Stat(artifactPath); err == nil {
		size = info.Size()
	}
	logging.WithContext(ctx, s.logger).Info("test mode, skipping send",
		logging.String("subject", deliverySubject(chunk)),
		logging.String("artifact", filepath.Base(artifactPath)),
		logging.Int64("artifact_bytes", size),
		logging.Int(logging.FieldChunk, chunk.ChunkNumber),
		logging.Int(logging.FieldChunkCount, chunk.TotalChunks))
	return nil
}

func deliverySubject(chunk *queue.DeliverableChunk) string {
	title := strings.TrimSpace(chunk.StoryTitle)
	if title == "" {
		title = "Story Delivery"
	}
	if chunk.TotalChunks > 1 {
		return fmt.Sprintf("%s - Part %d/%d", title, chunk.ChunkNumber, chunk.TotalChunks)
	}
	return title
}

func deliveryBody(chunk *queue.DeliverableChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delivering story: %s\n", strings.TrimSpace(chunk.StoryTitle))
	if chunk.TotalChunks > 1 {
		fmt.Fprintf(&b, "Part %d of %d\n", chunk.ChunkNumber, chunk.TotalChunks)
	}
	return b.String()
}

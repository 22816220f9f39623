package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/emailcraft/pkg/slug"
)

// DevSender writes every message to dir as an .html body plus a .json
// envelope instead of delivering it.
type DevSender struct {
	dir  string
	from string
}

func NewDevSender(dir, from string) *DevSender {
	return &DevSender{dir: dir, from: from}
}

type devEnvelope struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	msg = msg.withDefaults(d.from)

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory: %v", ErrFailedToSendEmail, err)
	}

	id := uuid.NewString()
	now := time.Now()
	base := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), slug.Make(msg.Subject, slug.MaxLength(60)), id[:8])

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(msg.HTML), 0o644); err != nil {
		return "", fmt.Errorf("%w: write html: %v", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(devEnvelope{
		ID:        id,
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal envelope: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return "", fmt.Errorf("%w: write envelope: %v", ErrFailedToSendEmail, err)
	}

	return id, nil
}

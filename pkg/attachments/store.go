// Package attachments persists file payloads delivered inline by front-end
// channels (the websocket gateway mainly) under the workspace, so canonical
// messages can carry stable local paths instead of transport blobs.
package attachments

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record describes one stored attachment.
type Record struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	ChatID    string    `json:"chat_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}

// Store writes attachment payloads under <workspace>/attachments,
// partitioned by channel and day.
type Store struct {
	root string
}

func NewStore(workspace string) *Store {
	root := filepath.Join(workspace, "attachments")
	_ = os.MkdirAll(root, 0755)
	return &Store{root: root}
}

func (s *Store) RootPath() string {
	return s.root
}

// SaveBytes stores an inline payload and returns its record.
func (s *Store) SaveBytes(channel, chatID, name string, data []byte) (Record, error) {
	now := time.Now().UTC()
	dir := filepath.Join(s.root, strings.ToLower(strings.TrimSpace(channel)), now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Record{}, fmt.Errorf("mkdir attachment dir: %w", err)
	}

	base := sanitizeFilename(name)
	if base == "" {
		base = "attachment"
	}
	dest := filepath.Join(dir, fmt.Sprintf("%s_%s_%s", now.Format("150405"), uuid.NewString()[:8], base))

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return Record{}, fmt.Errorf("write attachment: %w", err)
	}

	sum := sha256.Sum256(data)
	return Record{
		ID:        "att_" + uuid.NewString(),
		Channel:   channel,
		ChatID:    chatID,
		Name:      base,
		Path:      dest,
		SizeBytes: int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
		CreatedAt: now,
	}, nil
}

// SaveFromReader streams a payload to disk, for transports that hand over
// an io.Reader instead of a byte slice.
func (s *Store) SaveFromReader(channel, chatID, name string, r io.Reader) (Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Record{}, fmt.Errorf("read attachment payload: %w", err)
	}
	return s.SaveBytes(channel, chatID, name, data)
}

// IsInRoot reports whether path resolves inside the attachment root.
func (s *Store) IsInRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return strings.Trim(sb.String(), "._")
}

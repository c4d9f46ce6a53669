package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/google/uuid"
)

// Session is the opaque credential bag handed to the vendor client. The
// pipeline never inspects it beyond serializing it into a cookie header.
type Session struct {
	Cookies map[string]string `json:"cookies"`
}

// CookieHeader renders the bag as a Cookie header value with stable ordering.
func (s *Session) CookieHeader() string {
	if s == nil || len(s.Cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, s.Cookies[name]))
	}
	return strings.Join(pairs, "; ")
}

// Provider supplies a usable session for a run.
type Provider interface {
	Load(ctx context.Context) (*Session, error)
}

// FileProvider persists the cookie bag as a JSON jar on disk. A missing or
// unreadable jar falls back to a freshly stubbed session, mirroring the
// stub-login bootstrap this core treats as external.
type FileProvider struct {
	path   string
	logger *logger.Logger
}

func NewFileProvider(path string, logg *logger.Logger) (*FileProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cookie jar path is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &FileProvider{path: path, logger: logg}, nil
}

func (p *FileProvider) Load(ctx context.Context) (*Session, error) {
	raw, err := os.ReadFile(p.path)
	if err == nil {
		var sess Session
		if jsonErr := json.Unmarshal(raw, &sess); jsonErr == nil && len(sess.Cookies) > 0 {
			p.logger.Info(ctx, "session loaded from cookie jar")
			return &sess, nil
		}
		p.logger.Warn(ctx, "cookie jar unreadable, falling back to stub session")
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading cookie jar %s: %w", p.path, err)
	}

	sess := &Session{Cookies: map[string]string{"session": "stub-" + uuid.NewString()}}
	if err := p.save(sess); err != nil {
		return nil, err
	}
	p.logger.Info(ctx, "stub session created")
	return sess, nil
}

func (p *FileProvider) save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating cookie jar directory: %w", err)
	}
	encoded, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cookie jar: %w", err)
	}
	if err := os.WriteFile(p.path, encoded, 0o600); err != nil {
		return fmt.Errorf("writing cookie jar %s: %w", p.path, err)
	}
	return nil
}

// Package eml imports RFC 5322 message files into the local inbox.
package eml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/store"
)

// Parse reads one message. The text/plain part is preferred; HTML-only
// messages are reduced to plain text. Attachments are ignored.
func Parse(r io.Reader) (model.Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return model.Email{}, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	e := model.Email{}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		e.Sender = from[0].Address
	}
	if e.Sender == "" {
		e.Sender = strings.TrimSpace(mr.Header.Get("From"))
	}
	if e.Sender == "" {
		return model.Email{}, errors.New("message has no From header")
	}

	if subject, err := mr.Header.Subject(); err == nil {
		e.Subject = subject
	} else {
		e.Subject = mr.Header.Get("Subject")
	}

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		e.ReceivedAt = date
	} else {
		e.ReceivedAt = time.Now()
	}

	if msgID, err := mr.Header.MessageID(); err == nil && msgID != "" {
		e.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mid:"+msgID)).String()
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Email{}, fmt.Errorf("reading message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return model.Email{}, fmt.Errorf("reading %s part: %w", contentType, err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		case contentType == "" && textBody == "":
			textBody = string(body)
		}
	}

	if strings.TrimSpace(textBody) != "" {
		e.Body = strings.TrimSpace(textBody)
	} else {
		e.Body = stripHTML(htmlBody)
	}

	return e, nil
}

// Result summarises an import run.
type Result struct {
	Imported  int
	Duplicate int
	Failed    map[string]error
}

// Importer adds message files to the store.
type Importer struct {
	store  store.Store
	logger *zap.Logger
}

func NewImporter(st store.Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: st, logger: logger}
}

// Import adds path to the store. A directory is walked for *.eml files.
// Messages already present (same Message-Id) are skipped. Unparseable files
// are recorded in Result.Failed and do not stop the run.
func (im *Importer) Import(ctx context.Context, path string) (Result, error) {
	res := Result{Failed: map[string]error{}}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".eml") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("walking %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}

	for _, f := range files {
		e, err := parseFile(f)
		if err != nil {
			im.logger.Warn("skipping message file", zap.String("path", f), zap.Error(err))
			res.Failed[f] = err
			continue
		}

		if e.ID != "" {
			_, err := im.store.GetEmailByID(ctx, e.ID)
			if err == nil {
				res.Duplicate++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return res, err
			}
		}

		if err := im.store.InsertEmails(ctx, []model.Email{e}); err != nil {
			return res, err
		}
		res.Imported++
	}

	im.logger.Info("import finished",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("duplicate", res.Duplicate),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func parseFile(path string) (model.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Email{}, err
	}
	defer f.Close()
	return Parse(f)
}

package eml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/nhle/inbox-agent/internal/store"
	"github.com/nhle/inbox-agent/tests/testutil"
)

const plainMessage = "From: \"Sam Boss\" <boss@startup.io>\r\n" +
	"To: me@startup.io\r\n" +
	"Subject: Quick Sync\r\n" +
	"Date: Mon, 24 Nov 2025 08:00:00 +0000\r\n" +
	"Message-Id: <sync-1@startup.io>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Can you stay 15 mins late today?\r\n"

const alternativeMessage = "From: hr@startup.io\r\n" +
	"Subject: =?utf-8?q?Open_Enrollment_=E2=9C=93?=\r\n" +
	"Date: Wed, 19 Nov 2025 09:00:00 +0000\r\n" +
	"Message-Id: <enroll@startup.io>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Enrollment closes this Friday.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Enrollment closes <b>this Friday</b>.</p>\r\n" +
	"--XYZ--\r\n"

const htmlOnlyMessage = "From: marketing@tool.io\r\n" +
	"Subject: Black Friday\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><style>p{color:red}</style><body><p>50% off &amp; more</p><div>Upgrade today</div></body></html>\r\n"

func TestParsePlain(t *testing.T) {
	e, err := Parse(strings.NewReader(plainMessage))
	if err != nil {
		t.Fatal(err)
	}
	if e.Sender != "boss@startup.io" {
		t.Errorf("Sender = %q", e.Sender)
	}
	if e.Subject != "Quick Sync" {
		t.Errorf("Subject = %q", e.Subject)
	}
	if e.Body != "Can you stay 15 mins late today?" {
		t.Errorf("Body = %q", e.Body)
	}
	if want := time.Date(2025, 11, 24, 8, 0, 0, 0, time.UTC); !e.ReceivedAt.Equal(want) {
		t.Errorf("ReceivedAt = %v, want %v", e.ReceivedAt, want)
	}
	if e.ID == "" {
		t.Error("ID not derived from Message-Id")
	}
}

func TestParsePrefersPlainText(t *testing.T) {
	e, err := Parse(strings.NewReader(alternativeMessage))
	if err != nil {
		t.Fatal(err)
	}
	if e.Subject != "Open Enrollment ✓" {
		t.Errorf("Subject = %q", e.Subject)
	}
	if e.Body != "Enrollment closes this Friday." {
		t.Errorf("Body = %q", e.Body)
	}
}

func TestParseHTMLOnly(t *testing.T) {
	e, err := Parse(strings.NewReader(htmlOnlyMessage))
	if err != nil {
		t.Fatal(err)
	}
	if e.Body != "50% off & more\nUpgrade today" {
		t.Errorf("Body = %q", e.Body)
	}
	if e.ID != "" {
		t.Errorf("ID = %q, want empty without Message-Id", e.ID)
	}
}

func TestParseRequiresFrom(t *testing.T) {
	_, err := Parse(strings.NewReader("Subject: orphan\r\n\r\nbody\r\n"))
	if err == nil {
		t.Fatal("expected error for missing From")
	}
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"sync.eml":       plainMessage,
		"nested/hr.EML":  alternativeMessage,
		"promo.eml":      htmlOnlyMessage,
		"broken.eml":     "Subject: no sender\r\n\r\nx\r\n",
		"notes.txt":      "not a message",
		"nested/dup.eml": plainMessage,
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := testutil.NewTestStore(t)
	im := NewImporter(s, zaptest.NewLogger(t))

	res, err := im.Import(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 3 || res.Duplicate != 1 || len(res.Failed) != 1 {
		t.Errorf("result = %+v", res)
	}
	if _, ok := res.Failed[filepath.Join(dir, "broken.eml")]; !ok {
		t.Errorf("broken.eml not reported: %v", res.Failed)
	}

	emails, err := s.GetEmails(context.Background(), store.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(emails) != 3 {
		t.Fatalf("stored %d emails, want 3", len(emails))
	}

	// Importing again adds nothing with a Message-Id.
	res, err = im.Import(context.Background(), filepath.Join(dir, "sync.eml"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 0 || res.Duplicate != 1 {
		t.Errorf("re-import = %+v", res)
	}
}

func TestImportMissingPath(t *testing.T) {
	s := testutil.NewTestStore(t)
	if _, err := NewImporter(s, nil).Import(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<div>Hello&nbsp;<b>there</b></div>\n\n\n\n<p>Line two</p><script>alert(1)</script>")
	if got != "Hello there\n\nLine two" {
		t.Errorf("stripHTML = %q", got)
	}
}

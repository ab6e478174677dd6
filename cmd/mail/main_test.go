package main

import (
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func mustBody(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestLoadTemplatesFromRepo(t *testing.T) {
	templates, err := loadTemplates(filepath.Join("..", "..", "templates"))
	require.NoError(t, err)
	assert.Len(t, templates, len(subjects))
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.html"), []byte("{{.name}}"), 0o644))

	_, err := loadTemplates(dir)
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	templates := map[string]*template.Template{
		domain.MailTypeFeeReminder: template.Must(template.New("fee_reminder").Parse("{{.name}} owes {{.totalDue}}")),
	}

	body := mustBody(t, domain.MailMessage{
		Type: domain.MailTypeFeeReminder,
		To:   "rahul@example.com",
		Data: domain.FeeReminderMailData{Name: "Rahul", SID: 3, TotalDue: 600},
	})

	m, err := buildMessage("library@example.com", templates, body)
	require.NoError(t, err)

	assert.Equal(t, []string{subjects[domain.MailTypeFeeReminder]}, m.GetGenHeader(mail.HeaderSubject))
	to, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"rahul@example.com"}, to)
}

func TestBuildMessageRejectsUnknownOrBroken(t *testing.T) {
	templates := map[string]*template.Template{}

	_, err := buildMessage("library@example.com", templates, mustBody(t, domain.MailMessage{Type: "change_email", To: "a@example.com"}))
	assert.ErrorContains(t, err, "不支持的邮件类型")

	_, err = buildMessage("library@example.com", templates, []byte("not json"))
	assert.Error(t, err)
}

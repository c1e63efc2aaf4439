package report

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"racestats/internal/results"
	"racestats/lib/racetime"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func sampleRace() results.Race {
	return results.Race{
		Key:      results.RaceKey{Competition: "7", Race: "2", Event: "1"},
		Name:     "Harbour Swim Classic",
		Date:     time.Date(2024, time.February, 4, 0, 0, 0, 0, time.UTC),
		Category: "2.5km Open",
		Results: []results.Result{
			{Place: 1, Name: "Ava Thompson", Team: "Bondi Icebergs", Finish: racetime.MustParse("31:02.4")},
			{Place: 2, Name: "Liam O'Brien", Team: "Manly Masters", Finish: racetime.MustParse("32:15")},
			{Place: 3, Name: "Zoë Park", Team: "Bondi Icebergs", Finish: racetime.MustParse("33:40")},
			{Place: 4, Name: "Noah Williams", Team: "Unattached", Finish: racetime.MustParse("35:05")},
			{Name: "Jack Brown", Team: "Bondi Icebergs", Status: results.DNF},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Input{
		Races:   []results.Race{sampleRace()},
		Scorers: 2,
		Exclude: []string{"Unattached"},
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Harbour Swim Classic 2.5km Open")
	require.Contains(t, out, "Finishers: 4 of 5")
	require.Contains(t, out, "Team rankings")
	require.Contains(t, out, "Ava Thompson (1), Zoë Park (3)")
	require.Contains(t, strings.ToLower(out), "* incomplete team")
	require.Contains(t, out, "Podium")
	require.Contains(t, out, "31:02.4")
}

func TestRenderNoRaces(t *testing.T) {
	require.Error(t, Render(&bytes.Buffer{}, Input{}))
}

type sent struct {
	addr string
	auth bool
	mail *email.Email
}

func fakeMailer(config SmtpConfig, fail func(auth smtp.Auth) error) (Mailer, *[]sent) {
	var calls []sent
	m := NewMailer(config)
	m.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		calls = append(calls, sent{addr: addr, auth: auth != nil, mail: mail})
		return fail(auth)
	}
	return m, &calls
}

var testSmtp = SmtpConfig{
	Server:       "smtp.example.com",
	EmailAddress: "reports@example.com",
	Password:     "hunter2",
}

func TestMailerSend(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "finish.png")
	require.NoError(t, os.WriteFile(attachment, []byte("png"), 0644))

	m, calls := fakeMailer(testSmtp, func(smtp.Auth) error { return nil })
	err := m.Send(context.Background(), Message{
		Subject:     "Harbour Swim Classic",
		Body:        "report",
		Recipients:  []string{"coach@example.com"},
		Attachments: []string{attachment},
	})
	require.NoError(t, err)
	require.Len(t, *calls, 1)

	call := (*calls)[0]
	require.Equal(t, "smtp.example.com:587", call.addr)
	require.True(t, call.auth)
	require.Equal(t, "racestats <reports@example.com>", call.mail.From)
	require.Equal(t, []string{"coach@example.com"}, call.mail.To)
	require.Equal(t, []byte("report"), call.mail.Text)
	require.Len(t, call.mail.Attachments, 1)
}

func TestMailerRetriesWithoutAuth(t *testing.T) {
	m, calls := fakeMailer(testSmtp, func(auth smtp.Auth) error {
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	})
	err := m.Send(context.Background(), Message{Recipients: []string{"coach@example.com"}})
	require.NoError(t, err)
	require.Len(t, *calls, 2)
	require.False(t, (*calls)[1].auth)
}

func TestMailerErrors(t *testing.T) {
	failure := errors.New("connection refused")
	m, _ := fakeMailer(testSmtp, func(smtp.Auth) error { return failure })
	err := m.Send(context.Background(), Message{Recipients: []string{"coach@example.com"}})
	require.True(t, errors.Is(err, failure))

	err = m.Send(context.Background(), Message{})
	require.Error(t, err)

	unconfigured, _ := fakeMailer(SmtpConfig{}, func(smtp.Auth) error { return nil })
	err = unconfigured.Send(context.Background(), Message{Recipients: []string{"coach@example.com"}})
	require.Error(t, err)
}

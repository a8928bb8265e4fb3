package sinks

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scraper/models"
)

const (
	testToken  = "123:abc"
	apiBase    = "https://api.telegram.org/bot" + testToken + "/"
	getMeReply = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"tenders","username":"tenders_bot"}}`
	sentReply  = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"supergroup"}}}`
)

func newMockNotifier(t *testing.T, photo string) *TelegramNotifier {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("POST", apiBase+"getMe", httpmock.NewStringResponder(200, getMeReply))

	n, err := NewTelegramNotifier(TelegramConfig{
		Token:     testToken,
		ChatID:    -100,
		Topics:    map[models.Source]int{models.SourceXarid: 2, models.SourceEtender: 6},
		PhotoPath: photo,
		Client:    client,
	})
	require.NoError(t, err)
	return n
}

func TestNotifySendsMessageToTopic(t *testing.T) {
	n := newMockNotifier(t, "")

	var form map[string]string
	httpmock.RegisterResponder("POST", apiBase+"sendMessage", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		form = map[string]string{
			"chat_id":           req.PostForm.Get("chat_id"),
			"text":              req.PostForm.Get("text"),
			"parse_mode":        req.PostForm.Get("parse_mode"),
			"message_thread_id": req.PostForm.Get("message_thread_id"),
		}
		return httpmock.NewStringResponse(200, sentReply), nil
	})

	err := n.Notify(context.Background(), models.SourceXarid, "<b>Лот</b>")
	require.NoError(t, err)

	assert.Equal(t, "-100", form["chat_id"])
	assert.Equal(t, "<b>Лот</b>", form["text"])
	assert.Equal(t, "HTML", form["parse_mode"])
	assert.Equal(t, "2", form["message_thread_id"])
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["POST "+apiBase+"sendMessage"])
}

func TestNotifyWithoutTopic(t *testing.T) {
	n := newMockNotifier(t, "")

	var thread string
	httpmock.RegisterResponder("POST", apiBase+"sendMessage", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		thread = req.PostForm.Get("message_thread_id")
		return httpmock.NewStringResponse(200, sentReply), nil
	})

	require.NoError(t, n.Notify(context.Background(), models.SourceITMarket, "order"))
	assert.Empty(t, thread)
}

func TestNotifyAttachesPhoto(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "default_photo.jpeg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8\xff"), 0644))
	n := newMockNotifier(t, photo)

	var caption, thread string
	httpmock.RegisterResponder("POST", apiBase+"sendPhoto", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseMultipartForm(1<<20))
		caption = req.FormValue("caption")
		thread = req.FormValue("message_thread_id")
		return httpmock.NewStringResponse(200, sentReply), nil
	})

	require.NoError(t, n.Notify(context.Background(), models.SourceEtender, "tender"))
	assert.Equal(t, "tender", caption)
	assert.Equal(t, "6", thread)
}

func TestNotifyLongTextSkipsPhoto(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "default_photo.jpeg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8\xff"), 0644))
	n := newMockNotifier(t, photo)

	httpmock.RegisterResponder("POST", apiBase+"sendMessage", httpmock.NewStringResponder(200, sentReply))

	require.NoError(t, n.Notify(context.Background(), models.SourceEtender, strings.Repeat("я", maxCaptionRunes+1)))
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+apiBase+"sendMessage"])
	assert.Equal(t, 0, info["POST "+apiBase+"sendPhoto"])
}

func TestNotifyAPIError(t *testing.T) {
	n := newMockNotifier(t, "")
	httpmock.RegisterResponder("POST", apiBase+"sendMessage",
		httpmock.NewStringResponder(400, `{"ok":false,"error_code":400,"description":"Bad Request: message thread not found"}`))

	err := n.Notify(context.Background(), models.SourceXarid, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread not found")
}

func TestNotifyCancelled(t *testing.T) {
	n := newMockNotifier(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Notify(ctx, models.SourceXarid, "x"), context.Canceled)
}

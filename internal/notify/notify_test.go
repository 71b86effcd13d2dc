package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestEveryKeyIsTranslated(t *testing.T) {
	for key := range messages[English] {
		_, ok := messages[Persian][key]
		assert.True(t, ok, "missing Persian text for %s", key)
	}
	assert.Equal(t, len(messages[English]), len(messages[Persian]))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Could not add task", Text(English, AddFailed))
	assert.Equal(t, "افزودن وظیفه ناموفق بود", Text(Persian, AddFailed))
	assert.Equal(t, "Could not add task", Text(Lang("de"), AddFailed))
	assert.Equal(t, "mystery", Text(English, Key("mystery")))
}

func TestParseLang(t *testing.T) {
	assert.Equal(t, English, ParseLang("en"))
	assert.Equal(t, Persian, ParseLang("fa"))
	assert.Equal(t, Persian, ParseLang(""))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf), English)

	n.Notify(Failure(DeleteFailed, errors.New("503 Service Unavailable")))
	assert.Contains(t, buf.String(), "Could not delete task")
	assert.Contains(t, buf.String(), "503 Service Unavailable")

	buf.Reset()
	n.SetLang(Persian)
	n.Notify(Success(LoggedOut))
	assert.Contains(t, buf.String(), "از حساب خارج شدید")
}

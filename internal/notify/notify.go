// Package notify carries transient user-facing notifications raised by the
// client state managers, localized into the active language.
package notify

import (
	"sync"

	"github.com/charmbracelet/log"
)

type Lang string

const (
	Persian Lang = "fa"
	English Lang = "en"
)

// ParseLang returns the language for code, Persian for anything unknown.
func ParseLang(code string) Lang {
	if Lang(code) == English {
		return English
	}
	return Persian
}

type Level int

const (
	Info Level = iota
	Error
)

// Notification is one transient, non-blocking message.
type Notification struct {
	Level Level
	Key   Key
	Err   error
}

// Text returns the message in lang.
func (n Notification) Text(lang Lang) string {
	return Text(lang, n.Key)
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

func Failure(key Key, err error) Notification {
	return Notification{Level: Error, Key: key, Err: err}
}

func Success(key Key) Notification {
	return Notification{Level: Info, Key: key}
}

// LogNotifier prints notifications through a charmbracelet logger in the current language.
type LogNotifier struct {
	mu     sync.RWMutex
	lang   Lang
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger, lang Lang) *LogNotifier {
	return &LogNotifier{logger: logger, lang: lang}
}

// SetLang switches the language of subsequent notifications.
func (l *LogNotifier) SetLang(lang Lang) {
	l.mu.Lock()
	l.lang = lang
	l.mu.Unlock()
}

func (l *LogNotifier) Lang() Lang {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

func (l *LogNotifier) Notify(n Notification) {
	text := n.Text(l.Lang())
	if n.Level == Error {
		if n.Err != nil {
			l.logger.Error(text, "err", n.Err)
			return
		}
		l.logger.Error(text)
		return
	}
	l.logger.Info(text)
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) {}

package logging

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Journal directs log output to the systemd journal. Structured fields become
// journal variables. The setter errors when no journal socket is present so
// callers can fall back to stderr.
func Journal() Setter {
	return func(l *logrus.Logger) error {
		if !journal.Enabled() {
			return errors.New("systemd journal socket is not available")
		}
		l.AddHook(&journalHook{})
		l.SetOutput(ioutil.Discard)
		return nil
	}
}

type journalHook struct{}

func (*journalHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (*journalHook) Fire(e *logrus.Entry) error {
	vars := make(map[string]string, len(e.Data))
	for k, v := range e.Data {
		vars[journalVar(k)] = fmt.Sprint(v)
	}
	return journal.Send(e.Message, journalPriority(e.Level), vars)
}

// journalVar coerces a field name into the journal's accepted variable
// alphabet, uppercase alphanumerics and underscore.
func journalVar(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
	if mapped == "" || mapped[0] == '_' {
		mapped = "X" + mapped
	}
	return mapped
}

func journalPriority(lvl logrus.Level) journal.Priority {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return journal.PriCrit
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.DebugLevel, logrus.TraceLevel:
		return journal.PriDebug
	}
	return journal.PriInfo
}

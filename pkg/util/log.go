package util

import (
	"bytes"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	LogComponentField = "component"

	defaultLogComponent = "procspec"
)

type ComponentFormatter struct {
	*logrus.TextFormatter
}

// SetUpLogger routes logrus output to out with a component prefix on every
// line.
func SetUpLogger(out io.Writer, debug bool) {
	logrus.SetOutput(out)
	logrus.SetFormatter(ComponentFormatter{
		TextFormatter: &logrus.TextFormatter{
			DisableColors: true,
		},
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func (f ComponentFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	logMsg := &bytes.Buffer{}
	component, ok := entry.Data[LogComponentField]
	if !ok {
		component = defaultLogComponent
	}
	name, ok := component.(string)
	if !ok {
		return nil, errors.New("field component must be a string")
	}
	logMsg.WriteString("[" + name + "] ")

	// The component tag is already printed, keep it out of the field list.
	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		if k != LogComponentField {
			data[k] = v
		}
	}
	clone := entry.Dup()
	clone.Data = data
	clone.Level = entry.Level
	clone.Message = entry.Message
	clone.Time = entry.Time

	msg, err := f.TextFormatter.Format(clone)
	if err != nil {
		return nil, err
	}
	logMsg.Write(msg)

	return logMsg.Bytes(), nil
}

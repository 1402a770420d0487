package errsan

import "github.com/sirupsen/logrus"

// Hook — logrus-хук, который чистит сообщение и строковые поля записи
// до того, как она попадёт в вывод.
type Hook struct {
	s *Sanitizer
}

func NewHook(s *Sanitizer) *Hook {
	if s == nil {
		s = std
	}
	return &Hook{s: s}
}

func (h *Hook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *Hook) Fire(e *logrus.Entry) error {
	e.Message = h.s.Sanitize(e.Message)
	for k, v := range e.Data {
		switch val := v.(type) {
		case error:
			e.Data[k] = h.s.Sanitize(val.Error())
		case string:
			e.Data[k] = h.s.Sanitize(val)
		}
	}
	return nil
}

package render

import "strings"

// StatusArea is the pair of message slots under each table: the error line
// and the total line.
type StatusArea struct {
	Error string
	Total string
}

func (s *StatusArea) Clear() {
	s.Error = ""
	s.Total = ""
}

func (s *StatusArea) SetError(msg string) {
	s.Error = msg
}

// AppendError adds a sentence after whatever the error line already holds.
func (s *StatusArea) AppendError(msg string) {
	if strings.TrimSpace(s.Error) == "" {
		s.Error = msg
		return
	}
	s.Error += " " + msg
}

func (s StatusArea) Empty() bool {
	return s.Error == "" && s.Total == ""
}

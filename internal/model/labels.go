package model

import "fmt"

// Labels holds the fixed strings rendered around package content.
type Labels struct {
	Tags           string // prefix of the tag line, e.g. "Tags: "
	Answer         string // prefix of each answer, e.g. "Jawaban: "
	QuestionFormat string // printf format taking the 1-based question number
}

// DefaultLabels returns the Indonesian labels the dashboard uses.
func DefaultLabels() Labels {
	return Labels{
		Tags:           "Tags: ",
		Answer:         "Jawaban: ",
		QuestionFormat: "Soal #%d",
	}
}

// Question renders the heading for question n (1-based).
func (l Labels) Question(n int) string {
	return fmt.Sprintf(l.QuestionFormat, n)
}

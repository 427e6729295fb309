package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_Has(t *testing.T) {
	text := Analyze("I'm an intern at Acme. We grew revenue 20% this year!")

	assert.True(t, text.Has("intern"))
	assert.False(t, text.Has("internship"))
	assert.True(t, text.Has("i'm"))
	assert.True(t, text.Has("20%"))
	assert.True(t, text.Has("revenue 20"))
	assert.False(t, text.Has("acme corp"))
}

func TestText_HasInflections(t *testing.T) {
	tests := []struct {
		text string
		term string
		want bool
	}{
		{"three scholarships", "scholarship", true},
		{"two hackathons", "hackathon", true},
		{"the meetings ran long", "meeting", true},
		{"our club's budget", "club", true},
		{"honor societies", "society", true},
		{"two coaches", "coach", true},
		{"it differentiates us", "differentiate", true},
		{"international travel", "intern", false},
		{"his notes", "hi", false},
		{"a job offer", "jobs", false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.text).Has(tt.term))
		})
	}
}

func TestText_CountDistinct(t *testing.T) {
	text := Analyze("job job job and a resume")

	assert.Equal(t, 2, text.CountDistinct([]string{"job", "resume", "job", "salary"}))
}

func TestText_WordCountAndDigits(t *testing.T) {
	text := Analyze("  three little words ")
	assert.Equal(t, 3, text.WordCount())
	assert.False(t, text.HasDigit())
	assert.True(t, Analyze("top 5").HasDigit())
}

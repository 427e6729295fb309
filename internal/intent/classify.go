package intent

import (
	"github.com/jonathan/notepolish/internal/research"
	"github.com/jonathan/notepolish/internal/types"
)

// clause is satisfied when at least Min distinct Terms occur and, if
// RequireOrganization is set, a known organization is named.
type clause struct {
	Terms               []string
	Min                 int
	RequireOrganization bool
}

// rule assigns Intent when any of its clauses holds.
type rule struct {
	Intent  types.ContentIntent
	Clauses []clause
}

var (
	coverLetterPhrases = []string{
		"dear hiring", "i am writing to apply", "i'm writing to apply",
		"i am writing to express my interest", "to whom it may concern",
		"cover letter", "please find my resume", "please find attached my resume",
	}
	scholarshipKeywords = []string{
		"scholarship", "financial aid", "fellowship", "bursary",
		"tuition assistance", "grant application",
	}
	personalStatementPhrases = []string{
		"personal statement", "statement of purpose",
	}
	essayKeywords = []string{
		"common app", "college essay", "admissions essay", "application essay",
		"supplemental essay", "why this college", "why this school",
	}
	collegeKeywords = []string{
		"college", "university", "admission", "admissions", "campus", "major",
		"freshman", "undergraduate", "high school", "gpa", "extracurricular",
	}
	competitionKeywords = []string{
		"competition", "hackathon", "olympiad", "contest", "science fair",
		"tournament", "pitch competition",
	}
	clubKeywords = []string{
		"club", "society", "join", "member", "officer", "chapter",
		"organization", "volunteer", "meetings",
	}
	applyPhrases = []string{
		"apply for", "applying for", "apply to", "applying to",
		"application for", "interested in the position", "interested in the role",
	}
	jobKeywords = []string{
		"job", "position", "role", "internship", "intern", "hiring", "recruiter",
		"resume", "interview", "career", "salary", "employer", "full-time",
	}
	projectKeywords = []string{
		"project", "built", "build", "developed", "app", "website", "prototype",
		"deployed", "launched", "implemented", "feature", "github", "code",
	}
	emailMarkers = []string{
		"dear", "sincerely", "best regards", "kind regards", "email",
	}
	meetingMarkers = []string{
		"meeting", "agenda", "action items", "discussed", "attendees", "minutes",
	}
)

// cascade is checked top to bottom; the first rule that holds wins.
var cascade = []rule{
	{types.IntentCoverLetter, []clause{{Terms: coverLetterPhrases, Min: 1}}},
	{types.IntentScholarshipApplication, []clause{{Terms: scholarshipKeywords, Min: 1}}},
	{types.IntentPersonalStatement, []clause{{Terms: personalStatementPhrases, Min: 1}}},
	{types.IntentCollegeEssay, []clause{
		{Terms: essayKeywords, Min: 1},
		{Terms: collegeKeywords, Min: 2},
	}},
	{types.IntentCompetitionEntry, []clause{{Terms: competitionKeywords, Min: 1}}},
	{types.IntentClubApplication, []clause{{Terms: clubKeywords, Min: 2}}},
	{types.IntentJobApplication, []clause{
		{Terms: applyPhrases, Min: 1, RequireOrganization: true},
		{Terms: jobKeywords, Min: 2},
	}},
	{types.IntentProjectDescription, []clause{{Terms: projectKeywords, Min: 2}}},
	{types.IntentEmailDraft, []clause{{Terms: emailMarkers, Min: 1}}},
	{types.IntentMeetingNotes, []clause{{Terms: meetingMarkers, Min: 1}}},
}

// Classify returns the intent of text. Every input maps to exactly one
// intent; text matching no rule is IntentGeneral.
func Classify(text string) types.ContentIntent {
	t := Analyze(text)
	for _, r := range cascade {
		if r.holds(t, text) {
			return r.Intent
		}
	}
	return types.IntentGeneral
}

func (r rule) holds(t Text, raw string) bool {
	for _, c := range r.Clauses {
		if c.holds(t, raw) {
			return true
		}
	}
	return false
}

func (c clause) holds(t Text, raw string) bool {
	need := c.Min
	if need < 1 {
		need = 1
	}
	if t.CountDistinct(c.Terms) < need {
		return false
	}
	return !c.RequireOrganization || research.MentionsOrganization(raw)
}

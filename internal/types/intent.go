package types

// ContentIntent classifies what kind of document the user is producing.
// It is always derived from the text, never supplied by the caller.
type ContentIntent string

// Intent constants define the closed set of content intents
const (
	IntentJobApplication         ContentIntent = "job_application"
	IntentCollegeEssay           ContentIntent = "college_essay"
	IntentScholarshipApplication ContentIntent = "scholarship_application"
	IntentCompetitionEntry       ContentIntent = "competition_entry"
	IntentClubApplication        ContentIntent = "club_application"
	IntentCoverLetter            ContentIntent = "cover_letter"
	IntentPersonalStatement      ContentIntent = "personal_statement"
	IntentProjectDescription     ContentIntent = "project_description"
	IntentEmailDraft             ContentIntent = "email_draft"
	IntentMeetingNotes           ContentIntent = "meeting_notes"
	IntentGeneral                ContentIntent = "general"
)

// AllIntents returns every content intent
func AllIntents() []ContentIntent {
	return []ContentIntent{
		IntentJobApplication,
		IntentCollegeEssay,
		IntentScholarshipApplication,
		IntentCompetitionEntry,
		IntentClubApplication,
		IntentCoverLetter,
		IntentPersonalStatement,
		IntentProjectDescription,
		IntentEmailDraft,
		IntentMeetingNotes,
		IntentGeneral,
	}
}

// IsValid reports whether i is a known intent
func (i ContentIntent) IsValid() bool {
	for _, intent := range AllIntents() {
		if i == intent {
			return true
		}
	}
	return false
}

// Package suggestions produces advisory writing tips for a note based on its intent.
package suggestions

import (
	"sort"
	"strings"

	"github.com/jonathan/notepolish/internal/intent"
	"github.com/jonathan/notepolish/internal/research"
	"github.com/jonathan/notepolish/internal/types"
)

// MaxSuggestions is the most tips returned for one note.
const MaxSuggestions = 3

// shortTextWords is the word count below which a note is considered thin.
const shortTextWords = 50

// rule emits Suggestion when Fires holds for the note.
type rule struct {
	Fires      func(t intent.Text, raw string) bool
	Suggestion types.Suggestion
}

var (
	buildWords = []string{"built", "build", "building", "developed", "created", "made", "project", "app", "website", "tool"}
	techWords  = []string{
		"python", "java", "javascript", "typescript", "react", "node", "node.js", "golang",
		"sql", "postgres", "aws", "gcp", "azure", "docker", "kubernetes", "c++", "swift", "kotlin",
		"rust", "tensorflow", "pytorch", "flutter", "figma", "excel", "html", "css", "api",
	}
	metricWords = []string{
		"%", "percent", "increased", "reduced", "decreased", "saved", "grew", "doubled",
		"tripled", "users", "customers", "revenue", "hours", "downloads",
	}
	motivationWords = []string{
		"passion", "passionate", "excited", "love", "interested", "motivated",
		"inspired", "drawn to", "because i", "why i",
	}
	roleWords      = []string{"position", "role", "internship", "opening", "job"}
	closingWords   = []string{"sincerely", "regards", "thank you", "look forward", "looking forward"}
	companyWhy     = []string{"mission", "values", "culture", "admire", "your product", "your team"}
	storyWords     = []string{"when i", "i remember", "moment", "one day", "that day", "the day"}
	reflectWords   = []string{"learned", "realized", "taught me", "grew", "changed", "understood", "discovered"}
	futureWords    = []string{"want to", "hope to", "plan to", "future", "goal", "aspire", "dream"}
	goalWords      = []string{"goal", "career", "plan to", "future", "aspire", "degree"}
	awardWords     = []string{"gpa", "award", "honor", "honors", "ranked", "dean's list", "valedictorian", "first place"}
	communityWords = []string{"community", "volunteer", "volunteered", "service", "give back", "mentor", "tutor"}
	problemWords   = []string{"problem", "challenge", "solve", "solves", "solved", "solution", "pain point"}
	noveltyWords   = []string{"unique", "novel", "innovative", "first", "new approach", "unlike", "differentiate", "differentiated", "differentiation"}
	teamWords      = []string{"team", "we", "teammates", "collaborated", "together"}
	contribWords   = []string{"contribute", "bring", "organize", "lead", "help the", "plan events", "ideas"}
	interestWords  = []string{"interest", "interested", "passion", "love", "excited", "because"}
	pastWords      = []string{"experience", "before", "previously", "member of", "years", "last year"}
	ownershipWords = []string{"i built", "i designed", "i wrote", "i led", "my role", "i was responsible", "i implemented"}
	greetingWords  = []string{"dear", "hi", "hello", "hey", "good morning"}
	askWords       = []string{"please", "could you", "can you", "would you", "let me know", "let's", "?"}
	signoffWords   = []string{"regards", "sincerely", "thanks", "thank you", "best", "cheers"}
	actionWords    = []string{"action item", "action items", "todo", "to do", "will", "owner", "follow up", "next step", "next steps"}
	decisionWords  = []string{"decided", "agreed", "decision", "approved", "resolved", "chose"}
	dateWords      = []string{
		"deadline", "due", "by monday", "by tuesday", "by wednesday", "by thursday", "by friday",
		"tomorrow", "next week", "end of", "eod", "date",
	}
)

func missing(words []string) func(intent.Text, string) bool {
	return func(t intent.Text, _ string) bool { return !t.HasAny(words) }
}

func noMetrics(t intent.Text, _ string) bool {
	return !t.HasDigit() && !t.HasAny(metricWords)
}

var (
	quantifyImpact = types.Suggestion{
		Type:        types.SuggestionImprovement,
		Title:       "Quantify your impact",
		Description: "Add a number that shows the result: users served, time saved, or a percentage improvement.",
		Priority:    types.PriorityHigh,
	}
	nameTheStack = types.Suggestion{
		Type:        types.SuggestionAddition,
		Title:       "Name the technologies",
		Description: "Say which languages, frameworks or tools you used so a reader can judge the depth of the work.",
		Priority:    types.PriorityHigh,
	}
	showReflection = types.Suggestion{
		Type:        types.SuggestionImprovement,
		Title:       "Show what you learned",
		Description: "Reflect on how the experience changed your thinking or what it taught you.",
		Priority:    types.PriorityHigh,
	}
	connectFuture = types.Suggestion{
		Type:        types.SuggestionAddition,
		Title:       "Connect to your future",
		Description: "Tie the story to what you want to study or do next.",
		Priority:    types.PriorityMedium,
	}
)

// intentRules holds the checks for each intent. Rules are independent and
// may all fire for the same note.
var intentRules = map[types.ContentIntent][]rule{
	types.IntentJobApplication: {
		{
			Fires:      func(t intent.Text, _ string) bool { return t.HasAny(buildWords) && !t.HasAny(techWords) },
			Suggestion: nameTheStack,
		},
		{Fires: noMetrics, Suggestion: quantifyImpact},
		{
			Fires:      missing(motivationWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Explain your motivation",
				Description: "Say why this role or company interests you.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      func(_ intent.Text, raw string) bool { return !research.MentionsOrganization(raw) },
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Name the company",
				Description: "Mentioning the company by name makes the note feel written for them.",
				Priority:    types.PriorityLow,
			},
		},
	},
	types.IntentCoverLetter: {
		{
			Fires:      missing(roleWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Name the role",
				Description: "State the exact position you are applying for in the first paragraph.",
				Priority:    types.PriorityHigh,
			},
		},
		{Fires: noMetrics, Suggestion: quantifyImpact},
		{
			Fires:      missing(companyWhy),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Explain why this company",
				Description: "Mention something specific about the company's mission, product or culture.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(closingWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Add a closing",
				Description: "End with a thank-you and a line about next steps.",
				Priority:    types.PriorityMedium,
			},
		},
	},
	types.IntentCollegeEssay: {
		{
			Fires:      missing(storyWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Open with a specific moment",
				Description: "Start with a concrete scene instead of a general statement.",
				Priority:    types.PriorityHigh,
			},
		},
		{Fires: missing(reflectWords), Suggestion: showReflection},
		{Fires: missing(futureWords), Suggestion: connectFuture},
	},
	types.IntentPersonalStatement: {
		{Fires: missing(reflectWords), Suggestion: showReflection},
		{
			Fires:      missing(goalWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "State your goals",
				Description: "Say what you want to achieve and how this program gets you there.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(storyWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Ground it in an experience",
				Description: "One specific experience makes the statement more memorable than a list of traits.",
				Priority:    types.PriorityMedium,
			},
		},
	},
	types.IntentScholarshipApplication: {
		{
			Fires:      missing(goalWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "State your goals",
				Description: "Explain what the scholarship will help you achieve.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      func(t intent.Text, _ string) bool { return !t.HasAny(awardWords) && !t.HasDigit() },
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Cite your achievements",
				Description: "Include awards, honors, GPA or other measurable accomplishments.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(communityWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Show community impact",
				Description: "Describe how you have helped others or plan to give back.",
				Priority:    types.PriorityMedium,
			},
		},
	},
	types.IntentCompetitionEntry: {
		{
			Fires:      missing(problemWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "State the problem",
				Description: "Open with the problem your entry solves and who has it.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(noveltyWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionImprovement,
				Title:       "Highlight what is new",
				Description: "Explain what makes your approach different from existing solutions.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      noMetrics,
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Show results",
				Description: "Add test results, accuracy, or user feedback numbers.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(teamWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Credit your team",
				Description: "Judges like to know who did what.",
				Priority:    types.PriorityLow,
			},
		},
	},
	types.IntentClubApplication: {
		{
			Fires:      missing(contribWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Say what you will contribute",
				Description: "Describe a skill, idea or event you would bring to the club.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(interestWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Explain your interest",
				Description: "Say why this club matters to you.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(pastWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Mention related experience",
				Description: "Any prior involvement, even informal, strengthens the application.",
				Priority:    types.PriorityLow,
			},
		},
	},
	types.IntentProjectDescription: {
		{Fires: missing(techWords), Suggestion: nameTheStack},
		{
			Fires:      missing(problemWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Explain the problem",
				Description: "Start with what the project is for and who it helps.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      noMetrics,
			Suggestion: types.Suggestion{
				Type:        types.SuggestionImprovement,
				Title:       "Quantify results",
				Description: "Add usage, performance or time-saved numbers.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(ownershipWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Clarify your role",
				Description: "Make clear which parts you personally built or decided.",
				Priority:    types.PriorityLow,
			},
		},
	},
	types.IntentEmailDraft: {
		{
			Fires:      missing(askWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionImprovement,
				Title:       "Add a clear ask",
				Description: "Say exactly what you want the reader to do and by when.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(greetingWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Add a greeting",
				Description: "Open with the recipient's name.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(signoffWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Add a sign-off",
				Description: "Close with a short sign-off and your name.",
				Priority:    types.PriorityLow,
			},
		},
	},
	types.IntentMeetingNotes: {
		{
			Fires:      missing(actionWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "List action items",
				Description: "Capture who will do what after the meeting.",
				Priority:    types.PriorityHigh,
			},
		},
		{
			Fires:      missing(decisionWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Record decisions",
				Description: "Note what was agreed so people who missed the meeting know the outcome.",
				Priority:    types.PriorityMedium,
			},
		},
		{
			Fires:      missing(dateWords),
			Suggestion: types.Suggestion{
				Type:        types.SuggestionAddition,
				Title:       "Add deadlines",
				Description: "Put a date on each action item.",
				Priority:    types.PriorityMedium,
			},
		},
	},
	types.IntentGeneral: {
		{
			Fires:      func(t intent.Text, _ string) bool { return !t.HasDigit() && t.WordCount() >= shortTextWords },
			Suggestion: types.Suggestion{
				Type:        types.SuggestionTip,
				Title:       "Add concrete details",
				Description: "Names, dates and numbers make writing more convincing.",
				Priority:    types.PriorityLow,
			},
		},
		{
			Fires:      func(t intent.Text, raw string) bool { return t.WordCount() > 150 && !containsParagraphBreak(raw) },
			Suggestion: types.Suggestion{
				Type:        types.SuggestionStructure,
				Title:       "Break it into paragraphs",
				Description: "Group related ideas so the text is easier to scan.",
				Priority:    types.PriorityLow,
			},
		},
	},
}

var addMoreDetail = types.Suggestion{
	Type:        types.SuggestionImprovement,
	Title:       "Add more detail",
	Description: "Your note is short. A few more specifics about what happened and why it matters will give the rewrite more to work with.",
	Priority:    types.PriorityMedium,
}

// Generate returns at most MaxSuggestions tips for text, sorted by priority.
// Tips of equal priority keep the order in which they were produced.
func Generate(text string, contentIntent types.ContentIntent) []types.Suggestion {
	t := intent.Analyze(text)

	var out []types.Suggestion
	if t.WordCount() < shortTextWords {
		out = append(out, addMoreDetail)
	}

	for _, r := range intentRules[contentIntent] {
		if r.Fires(t, text) {
			out = append(out, r.Suggestion)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func containsParagraphBreak(raw string) bool {
	return strings.Contains(raw, "\n\n")
}

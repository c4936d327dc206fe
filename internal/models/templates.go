package models

// Template is a pre-built habit that can be added in one step.
type Template struct {
	ID          string
	Name        string
	Description string
	Category    string
	Color       string
	Icon        string
	Frequency   Frequency
	Target      int
}

// Templates is the quick-create catalog.
var Templates = []Template{
	{"morning-exercise", "Morning Exercise", "30 minutes of physical activity to start your day", "health", "#10B981", "💪", Daily, 5},
	{"reading", "Read for 20 Minutes", "Develop a reading habit and expand your knowledge", "learning", "#F59E0B", "📚", Daily, 7},
	{"meditation", "Meditation", "10 minutes of mindfulness and breathing exercises", "mindfulness", "#818CF8", "🧘", Daily, 7},
	{"water", "Drink Water", "Stay hydrated throughout the day (8 glasses)", "health", "#06B6D4", "💧", Daily, 7},
	{"journal", "Journal", "Write down your thoughts, gratitude, and reflections", "productivity", "#8B5CF6", "📝", Daily, 5},
	{"learn", "Learn Something New", "Dedicate time to learning a new skill or language", "learning", "#3B82F6", "🎓", Daily, 5},
	{"gratitude", "Practice Gratitude", "List 3 things you are grateful for", "mindfulness", "#EC4899", "🙏", Daily, 7},
	{"meal-prep", "Healthy Meal Prep", "Prepare nutritious meals for the day", "health", "#10B981", "🥗", Daily, 5},
	{"evening-walk", "Evening Walk", "15-minute walk to unwind and relax", "health", "#F59E0B", "🚶", Daily, 5},
	{"digital-detox", "Digital Detox", "No screens 1 hour before bed", "mindfulness", "#6366F1", "📵", Daily, 7},
	// "weekdays" is presented as a frequency but persisted as custom + target.
	{"creative", "Creative Time", "Engage in creative activities (art, music, writing)", "creative", "#EC4899", "🎨", Custom, 3},
	{"friends", "Connect with Friends", "Reach out and connect with friends or family", "social", "#F59E0B", "👥", Weekly, 2},
}

// Category is a known habit category. Habits may carry others.
type Category struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

var Categories = []Category{
	{"health", "Health & Fitness", "💪", "#10B981"},
	{"productivity", "Productivity", "⚡", "#6366F1"},
	{"learning", "Learning", "📚", "#F59E0B"},
	{"mindfulness", "Mindfulness", "🧘", "#818CF8"},
	{"social", "Social", "👥", "#EC4899"},
	{"creative", "Creative", "🎨", "#8B5CF6"},
	{"other", "Other", "✨", "#A1A1AA"},
}

// CategoryName returns the display name of id, or id itself when unknown.
func CategoryName(id string) string {
	for _, c := range Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

// FindTemplate looks a template up by id.
func FindTemplate(id string) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Habit turns the template into an unsaved habit.
func (t Template) Habit() Habit {
	return Habit{
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Color:       t.Color,
		Icon:        t.Icon,
		Frequency:   t.Frequency,
		Target:      t.Target,
	}
}

// StarterHabits is the set a first-run guest session starts with.
// ids are assigned by the caller's id function.
func StarterHabits(today string, newID func() string) []Habit {
	starters := []Habit{
		{Name: "Morning Routine", Description: "Complete your morning routine: wake up early, make bed, breakfast", Category: "productivity", Color: "#6366F1", Icon: "🌅", Target: 7},
		{Name: "Exercise", Description: "30 minutes of physical activity", Category: "health", Color: "#10B981", Icon: "💪", Target: 5},
		{Name: "Reading", Description: "Read for at least 20 minutes", Category: "learning", Color: "#F59E0B", Icon: "📚", Target: 7},
		{Name: "Meditation", Description: "10 minutes of mindfulness meditation", Category: "mindfulness", Color: "#818CF8", Icon: "🧘", Target: 7},
		{Name: "Journaling", Description: "Write down thoughts, gratitude, and reflections", Category: "productivity", Color: "#8B5CF6", Icon: "📝", Target: 5},
	}
	for i := range starters {
		starters[i].ID = newID()
		starters[i].Frequency = Daily
		starters[i].CreatedDate = today
		starters[i].IsActive = true
	}
	return starters
}

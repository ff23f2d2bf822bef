package db

type Task struct {
	ID        string
	Title     string
	ClassName string
	Type      int64
	Deadline  int64
	Url       string
	Done      bool
	Color     string
	Manual    bool
}

type ClassCell struct {
	ClassID         string
	Period          int64
	DayOfWeek       int64
	IsUserGenerated bool
	TimetableTitle  string
	Name            string
	Teachers        string
	Room            string
	AcademicYear    int64
	Term            string
	Link            string
	Note            string
	Credits         int64
}

type NewsItem struct {
	ID          string
	SecondaryID string
	Title       string
	Category    string
	Domain      string
	PublishedAt string
	Tag         string
	Unread      bool
	Url         string
	Position    int64
}

type Keychain struct {
	Name      string
	Value     string
	ExpiresAt int64
}

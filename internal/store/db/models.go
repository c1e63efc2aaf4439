package db

type Race struct {
	ID          int64
	Competition string
	Race        string
	Event       string
	Name        string
	Date        int64
	Category    string
	SourceUrl   string
	FetchedAt   int64
}

type Result struct {
	ID       int64
	RaceID   int64
	Position int64
	Place    int64
	Bib      string
	Name     string
	Team     string
	Country  string
	Category string
	Status   int64
	FinishMs int64
}

type Split struct {
	ResultID int64
	Position int64
	Name     string
	TimeMs   int64
}

package models

// Episode is one published show. Date is an ISO date string and is compared
// lexicographically, never parsed.
type Episode struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Notes     string `json:"notes"`
	Tags      string `json:"tags"` // comma separated free text
	HostID    int    `json:"hostid"`
	SeriesID  int    `json:"series"` // 0 = not part of a series
	Date      string `json:"date"`
	Duration  int    `json:"duration"` // seconds
	License   string `json:"license"`
	Downloads int    `json:"downloads"`
}

type Host struct {
	ID      int    `json:"hostid"`
	Name    string `json:"host"`
	Email   string `json:"email"`
	License string `json:"license"`
	Profile string `json:"profile"`
	Valid   bool   `json:"valid"`
}

type Series struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Valid       bool   `json:"valid"`
	Private     bool   `json:"private"`
}

type Comment struct {
	EpisodeID int    `json:"eps_id"`
	Author    string `json:"comment_author_name"`
	Timestamp string `json:"comment_timestamp"`
	Title     string `json:"comment_title"`
	Text      string `json:"comment_text"`
}

// Corpus is everything a process serves. Transcripts are keyed by episode id;
// an episode without an entry simply has no transcript.
type Corpus struct {
	Episodes    []Episode
	Hosts       []Host
	Series      []Series
	Comments    []Comment
	Transcripts map[int]string
}

// Stats summarises a loaded corpus.
type Stats struct {
	Episodes     int    `json:"episodes"`
	Hosts        int    `json:"hosts"`
	Series       int    `json:"series"`
	Comments     int    `json:"comments"`
	Transcripts  int    `json:"transcripts"`
	EarliestDate string `json:"earliest_date"`
	LatestDate   string `json:"latest_date"`
}

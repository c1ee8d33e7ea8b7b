package services

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

type searchEpisodesArgs struct {
	Query    string `json:"query"`
	HostID   int    `json:"hostId"`
	SeriesID int    `json:"seriesId"`
	Tag      string `json:"tag"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	Limit    int    `json:"limit"`
}

type getEpisodeArgs struct {
	EpisodeID         int   `json:"episodeId"`
	IncludeTranscript *bool `json:"includeTranscript"`
	IncludeComments   *bool `json:"includeComments"`
}

type searchTranscriptsArgs struct {
	Query                string   `json:"query"`
	Terms                []string `json:"terms"`
	MatchMode            string   `json:"matchMode"`
	HostID               int      `json:"hostId"`
	HostName             string   `json:"hostName"`
	Limit                int      `json:"limit"`
	ContextLines         *int     `json:"contextLines"`
	CaseSensitive        bool     `json:"caseSensitive"`
	WholeWord            bool     `json:"wholeWord"`
	MaxMatchesPerEpisode int      `json:"maxMatchesPerEpisode"`
}

type getHostInfoArgs struct {
	HostID          int    `json:"hostId"`
	HostName        string `json:"hostName"`
	IncludeEpisodes *bool  `json:"includeEpisodes"`
}

type getSeriesInfoArgs struct {
	SeriesID int `json:"seriesId"`
}

// decodeArgs maps a loosely typed argument bag onto dst. Numbers sent as
// strings and single values sent for lists are accepted.
func decodeArgs(args map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return &ValidationError{Fields: map[string]string{"arguments": err.Error()}}
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func checkDate(fields map[string]string, name, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		fields[name] = "must be a YYYY-MM-DD date"
	}
}

func checkLimit(fields map[string]string, name string, value int) {
	if value < 0 {
		fields[name] = "must not be negative"
	}
}

func (a *searchEpisodesArgs) validate() error {
	fields := make(map[string]string)
	checkDate(fields, "fromDate", a.FromDate)
	checkDate(fields, "toDate", a.ToDate)
	checkLimit(fields, "limit", a.Limit)
	if a.FromDate != "" && a.ToDate != "" && a.FromDate > a.ToDate && len(fields) == 0 {
		fields["toDate"] = "must not be before fromDate"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (a *searchTranscriptsArgs) validate() error {
	fields := make(map[string]string)
	checkLimit(fields, "limit", a.Limit)
	checkLimit(fields, "maxMatchesPerEpisode", a.MaxMatchesPerEpisode)
	if a.ContextLines != nil {
		checkLimit(fields, "contextLines", *a.ContextLines)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

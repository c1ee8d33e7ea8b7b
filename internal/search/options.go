package search

const (
	DefaultEpisodeFuzzyThreshold = 3
	DefaultHostFuzzyThreshold    = 2
	DefaultEpisodeLimit          = 20
	DefaultTranscriptLimit       = 20
	DefaultMaxMatchesPerEpisode  = 5
)

type options struct {
	episodeFuzzyThreshold int
	hostFuzzyThreshold    int
}

// Option configures an Engine.
type Option func(*options)

// WithEpisodeFuzzyThreshold sets the maximum edit distance between the query
// and a title word for a fuzzy episode match. Negative values are ignored.
func WithEpisodeFuzzyThreshold(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.episodeFuzzyThreshold = n
		}
	}
}

// WithHostFuzzyThreshold sets the maximum edit distance for a fuzzy host match.
func WithHostFuzzyThreshold(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.hostFuzzyThreshold = n
		}
	}
}

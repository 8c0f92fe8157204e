package types

// SkillMatch is the derived classification of job-description keywords
// against a profile. It is recomputed on every analysis and never stored.
type SkillMatch struct {
	Keywords            []string `json:"keywords"`
	Relevant            []string `json:"relevant"`
	Missing             []string `json:"missing"`
	ProfileSkillsInText []string `json:"profileSkillsInText"`
}

// SamplePosting is an entry in the static catalog of example job postings.
type SamplePosting struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Company     string   `json:"company" yaml:"company"`
	Location    string   `json:"location" yaml:"location"`
	Description string   `json:"description" yaml:"description"`
	Skills      []string `json:"skills" yaml:"skills"`
}

// PostingMatch pairs a catalog posting with a percentage score.
type PostingMatch struct {
	Posting SamplePosting `json:"posting"`
	Score   int           `json:"score"`
}

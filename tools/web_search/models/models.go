package models

// Result is a single hit returned by a search provider.
type Result struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	RawContent string `json:"raw_content,omitempty"`
}

// Options control a single search call.
type Options struct {
	Depth             string // low, medium, high
	MaxResults        int
	IncludeRawContent bool
}

// DepthResults maps a depth setting onto a result count for providers without
// a native depth parameter.
func (o Options) DepthResults() int {
	k := 5
	switch o.Depth {
	case "medium":
		k = 10
	case "high":
		k = 20
	}
	if o.MaxResults > 0 && o.MaxResults < k {
		k = o.MaxResults
	}
	return k
}

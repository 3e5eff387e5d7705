package decode

// Titles holds the display titles of an entry.
type Titles struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// HomeItem is a single entry of a home feed section.
type HomeItem struct {
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	Titles      Titles `json:"titles"`
	Description string `json:"description,omitempty"`
	Indicator   string `json:"indicator,omitempty"`
	Current     *int   `json:"current,omitempty"`
	Total       *int   `json:"total,omitempty"`
}

// HomeSection is a titled row of the home feed.
type HomeSection struct {
	Type  string     `json:"type,omitempty"`
	Title string     `json:"title"`
	Data  []HomeItem `json:"data"`
}

// SearchItem is a single search hit.
type SearchItem struct {
	URL       string `json:"url"`
	Image     string `json:"img,omitempty"`
	Title     string `json:"title"`
	Indicator string `json:"indicatorText,omitempty"`
	Current   *int   `json:"currentCount,omitempty"`
	Total     *int   `json:"totalCount,omitempty"`
}

// Season links to another info page of the same series.
type Season struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Episode is a playable entry of an info page.
type Episode struct {
	URL         string  `json:"url"`
	Number      float64 `json:"number"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// EpisodeGroup is a titled list of episodes, e.g. "Sub" and "Dub".
type EpisodeGroup struct {
	Title string    `json:"title"`
	List  []Episode `json:"list"`
}

// Server is one place a media item can be resolved from.
type Server struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ServerGroup is a titled list of servers.
type ServerGroup struct {
	Title string   `json:"title"`
	List  []Server `json:"list"`
}

// Source is a playable stream.
type Source struct {
	File string `json:"file"`
	Type string `json:"type,omitempty"`
}

// Subtitle is an external subtitle track.
type Subtitle struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

// SkipTime marks an intro or outro range in seconds.
type SkipTime struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"`
}

// Payload is one of the decoded result shapes.
type Payload interface {
	Family() Family
}

// HomeFeed is the decoded home feed.
type HomeFeed struct {
	Sections []HomeSection `json:"sections"`
}

// SearchResults is the decoded list of search hits.
type SearchResults struct {
	Items []SearchItem `json:"items"`
}

// InfoDetail is the decoded info page.
type InfoDetail struct {
	Titles          Titles         `json:"titles"`
	AltTitles       []string       `json:"altTitles,omitempty"`
	Description     string         `json:"description,omitempty"`
	Poster          string         `json:"poster,omitempty"`
	Banner          string         `json:"banner,omitempty"`
	Status          string         `json:"status,omitempty"`
	TotalMediaCount int            `json:"totalMediaCount,omitempty"`
	MediaType       string         `json:"mediaType,omitempty"`
	Seasons         []Season       `json:"seasons,omitempty"`
	EpisodeListURLs []string       `json:"epListURLs,omitempty"`
	MediaList       []EpisodeGroup `json:"mediaList,omitempty"`
}

// WithEpisodes returns d with the groups of list appended to its media list.
func (d InfoDetail) WithEpisodes(list EpisodeList) InfoDetail {
	groups := make([]EpisodeGroup, 0, len(d.MediaList)+len(list.Groups))
	d.MediaList = append(append(groups, d.MediaList...), list.Groups...)
	return d
}

// EpisodeList is the alternate info shape: episodes without the surrounding detail.
type EpisodeList struct {
	Groups []EpisodeGroup `json:"groups"`
}

// ServerList is the alternate media shape: servers still to be resolved.
type ServerList struct {
	Groups []ServerGroup `json:"groups"`
}

// MediaBundle is the resolved media: streams plus subtitles and skip ranges.
type MediaBundle struct {
	Sources   []Source   `json:"sources"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
	SkipTimes []SkipTime `json:"skips,omitempty"`
}

// Unrecognized carries text that matched no known shape.
type Unrecognized struct {
	Text     string `json:"text"`
	Expected Family `json:"-"`
}

func (HomeFeed) Family() Family       { return Home }
func (SearchResults) Family() Family  { return Search }
func (InfoDetail) Family() Family     { return Info }
func (EpisodeList) Family() Family    { return Info }
func (ServerList) Family() Family     { return Media }
func (MediaBundle) Family() Family    { return Media }
func (u Unrecognized) Family() Family { return u.Expected }

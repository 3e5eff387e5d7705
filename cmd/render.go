package cmd

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/style"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

var (
	sectionStyle = style.New().Bold(true).Foreground(color.HiPurple).Render
	urlStyle     = style.Faint
	numberStyle  = style.Fg(color.Yellow)
	tagStyle     = style.Fg(color.Cyan)
	strict       = bluemonday.StrictPolicy()
)

// plain strips markup from module supplied text.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

type renderer struct {
	w     io.Writer
	width int
}

func (r renderer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

func (r renderer) title(s string) string {
	return truncate.StringWithTail(plain(s), uint(max(r.width-8, 16)), "…")
}

func (r renderer) paragraph(s string, depth uint) {
	s = plain(s)
	if s == "" {
		return
	}
	wrapped := wordwrap.String(s, max(r.width-int(depth)-2, 20))
	r.line("%s", indent.String(wrapped, depth))
}

// renderJSON writes payload as indented JSON.
func renderJSON(w io.Writer, payload decode.Payload) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// render writes payload in a human readable form.
func render(w io.Writer, payload decode.Payload, width int) {
	r := renderer{w: w, width: width}

	switch p := payload.(type) {
	case decode.HomeFeed:
		r.home(p)
	case decode.SearchResults:
		r.search(p)
	case decode.InfoDetail:
		r.info(p)
	case decode.EpisodeList:
		r.episodes(p.Groups)
	case decode.ServerList:
		r.servers(p)
	case decode.MediaBundle:
		r.media(p)
	case decode.Unrecognized:
		r.line("%s %s output did not match any known shape", icon.Get(icon.Warn), p.Expected)
		r.paragraph(p.Text, 2)
	case nil:
		r.line("%s nothing to show", icon.Get(icon.Info))
	}
}

func progress(current, total *int) string {
	switch {
	case current != nil && total != nil:
		return fmt.Sprintf("%d/%d", *current, *total)
	case total != nil:
		return strconv.Itoa(*total)
	case current != nil:
		return strconv.Itoa(*current)
	default:
		return ""
	}
}

func (r renderer) home(feed decode.HomeFeed) {
	for i, section := range feed.Sections {
		if i > 0 {
			r.line("")
		}
		r.line("%s", sectionStyle(plain(section.Title)))

		for _, item := range section.Data {
			title := r.title(item.Titles.Primary)
			if n := progress(item.Current, item.Total); n != "" {
				title += " " + numberStyle(n)
			}
			if item.Indicator != "" {
				title += " " + tagStyle(plain(item.Indicator))
			}
			r.line("  %s", title)
			r.line("  %s", urlStyle(item.URL))
		}
	}
}

func (r renderer) search(results decode.SearchResults) {
	if len(results.Items) == 0 {
		r.line("%s no results", icon.Get(icon.Info))
		return
	}

	for i, item := range results.Items {
		title := r.title(item.Title)
		if n := progress(item.Current, item.Total); n != "" {
			title += " " + numberStyle(n)
		}
		if item.Indicator != "" {
			title += " " + tagStyle(plain(item.Indicator))
		}
		r.line("%s %s", numberStyle(fmt.Sprintf("%2d.", i+1)), title)
		r.line("    %s", urlStyle(item.URL))
	}
}

func (r renderer) info(d decode.InfoDetail) {
	r.line("%s", style.Bold(plain(d.Titles.Primary)))
	if d.Titles.Secondary != "" {
		r.line("%s", style.Italic(plain(d.Titles.Secondary)))
	}
	if len(d.AltTitles) > 0 {
		r.line("%s", urlStyle(strings.Join(d.AltTitles, " · ")))
	}

	var facts []string
	if d.Status != "" {
		facts = append(facts, d.Status)
	}
	if d.MediaType != "" {
		facts = append(facts, d.MediaType)
	}
	if d.TotalMediaCount > 0 {
		facts = append(facts, strconv.Itoa(d.TotalMediaCount)+" episodes")
	}
	if len(facts) > 0 {
		r.line("%s", tagStyle(strings.Join(facts, " | ")))
	}

	if d.Description != "" {
		r.line("")
		r.paragraph(d.Description, 0)
	}

	if len(d.Seasons) > 0 {
		r.line("")
		r.line("%s", sectionStyle("Seasons"))
		for _, season := range d.Seasons {
			r.line("  %s %s", plain(season.Name), urlStyle(season.URL))
		}
	}

	if len(d.MediaList) > 0 {
		r.line("")
		r.episodes(d.MediaList)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (r renderer) episodes(groups []decode.EpisodeGroup) {
	for i, group := range groups {
		if i > 0 {
			r.line("")
		}
		r.line("%s", sectionStyle(plain(group.Title)))
		for _, ep := range group.List {
			title := numberStyle(formatNumber(ep.Number))
			if ep.Title != "" {
				title += " " + r.title(ep.Title)
			}
			r.line("  %s %s", title, urlStyle(ep.URL))
		}
	}
}

func (r renderer) servers(list decode.ServerList) {
	for i, group := range list.Groups {
		if i > 0 {
			r.line("")
		}
		r.line("%s", sectionStyle(plain(group.Title)))
		for _, server := range group.List {
			r.line("  %s %s", plain(server.Name), urlStyle(server.URL))
		}
	}
}

func (r renderer) media(bundle decode.MediaBundle) {
	r.line("%s", sectionStyle("Sources"))
	for i, source := range bundle.Sources {
		kind := ""
		if source.Type != "" {
			kind = " " + tagStyle(source.Type)
		}
		r.line("  %s %s%s", numberStyle(fmt.Sprintf("%d.", i+1)), source.File, kind)
	}

	if len(bundle.Subtitles) > 0 {
		r.line("%s", sectionStyle("Subtitles"))
		for _, sub := range bundle.Subtitles {
			r.line("  %s %s", tagStyle(sub.Language), urlStyle(sub.URL))
		}
	}

	if len(bundle.SkipTimes) > 0 {
		r.line("%s", sectionStyle("Skips"))
		for _, skip := range bundle.SkipTimes {
			r.line("  %s %s-%s", skip.Type, formatNumber(skip.Start), formatNumber(skip.End))
		}
	}
}

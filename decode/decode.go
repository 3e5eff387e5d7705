// Package decode turns the text collected from a module run into typed results.
//
// Every family has a primary shape and one alternate. The shape is picked by
// looking at the JSON type of the payload before decoding, so a mismatch is a
// returned value, never a panic.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anisan-cli/modhost/failure"
	"github.com/buger/jsonparser"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Family is the kind of result a feature is expected to produce.
type Family uint8

const (
	Home Family = iota
	Search
	Info
	Media
)

func (f Family) String() string {
	switch f {
	case Home:
		return "home"
	case Search:
		return "search"
	case Info:
		return "info"
	case Media:
		return "media"
	default:
		return "unknown"
	}
}

// ParseFamily maps a family name to its value.
func ParseFamily(name string) (Family, bool) {
	for _, f := range []Family{Home, Search, Info, Media} {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

// Result is a decoded payload plus the pagination hint that came with it.
type Result struct {
	Payload Payload
	NextURL mo.Option[string]
}

const (
	resultKey  = "result"
	nextURLKey = "nextUrl"
)

var errShape = errors.New("unexpected shape")

// Decode parses text as the given family. When neither the primary nor the
// alternate shape matches, the result carries Unrecognized and the error is a
// decode failure holding the original text.
func Decode(text string, family Family) (Result, error) {
	data := []byte(strings.TrimSpace(text))

	var (
		payload Payload
		err     error
	)

	switch family {
	case Home:
		payload, err = decodeHome(data)
	case Search:
		payload, err = decodeSearch(data)
	case Info:
		payload, err = decodeInfo(data)
	case Media:
		payload, err = decodeMedia(data)
	default:
		err = fmt.Errorf("unknown family %d", family)
	}

	if err != nil {
		return Result{Payload: Unrecognized{Text: text, Expected: family}}, &failure.Error{
			Kind: failure.Decode,
			Op:   "decode." + family.String(),
			Text: text,
			Err:  err,
		}
	}

	return Result{Payload: payload, NextURL: nextURL(data)}, nil
}

// NextURL returns the pagination hint of a wrapped envelope. Text that is not
// an envelope has none.
func NextURL(text string) mo.Option[string] {
	return nextURL([]byte(strings.TrimSpace(text)))
}

func nextURL(data []byte) mo.Option[string] {
	next, err := jsonparser.GetString(data, nextURLKey)
	if err != nil || strings.TrimSpace(next) == "" {
		return mo.None[string]()
	}
	return mo.Some(next)
}

// envelope returns the wrapped payload and its JSON type.
func envelope(data []byte) ([]byte, jsonparser.ValueType, error) {
	if _, kind, _, err := jsonparser.Get(data); err != nil || kind != jsonparser.Object {
		return nil, jsonparser.NotExist, fmt.Errorf("%w: not a wrapped object", errShape)
	}

	value, kind, _, err := jsonparser.Get(data, resultKey)
	if err != nil {
		return nil, jsonparser.NotExist, fmt.Errorf("%w: no %q field", errShape, resultKey)
	}
	return value, kind, nil
}

// firstHas reports whether the first element of an array has field.
func firstHas(array []byte, field string) bool {
	_, kind, _, err := jsonparser.Get(array, "[0]", field)
	return err == nil && kind != jsonparser.NotExist
}

func decodeHome(data []byte) (Payload, error) {
	value, kind, err := envelope(data)
	if err != nil {
		return nil, err
	}
	if kind != jsonparser.Array {
		return nil, fmt.Errorf("%w: home result is %s", errShape, kind)
	}

	if firstHas(value, "data") {
		var sections []HomeSection
		if err := json.Unmarshal(value, &sections); err != nil {
			return nil, err
		}
		return HomeFeed{Sections: sections}, nil
	}

	var items []HomeItem
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, err
	}
	return HomeFeed{Sections: []HomeSection{{Title: "", Data: items}}}, nil
}

func decodeSearch(data []byte) (Payload, error) {
	_, top, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}

	value := data
	switch top {
	case jsonparser.Array:
	case jsonparser.Object:
		var kind jsonparser.ValueType
		if value, kind, err = envelope(data); err != nil {
			return nil, err
		}
		if kind != jsonparser.Array {
			return nil, fmt.Errorf("%w: search result is %s", errShape, kind)
		}
	default:
		return nil, fmt.Errorf("%w: search text is %s", errShape, top)
	}

	var items []SearchItem
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, err
	}
	if _, bad := lo.Find(items, func(i SearchItem) bool { return i.URL == "" }); bad {
		return nil, fmt.Errorf("%w: search item without url", errShape)
	}
	return SearchResults{Items: items}, nil
}

func decodeInfo(data []byte) (Payload, error) {
	value, kind, err := envelope(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case jsonparser.Object:
		var detail InfoDetail
		if err := json.Unmarshal(value, &detail); err != nil {
			return nil, err
		}
		if strings.TrimSpace(detail.Titles.Primary) == "" {
			return nil, fmt.Errorf("%w: info without a primary title", errShape)
		}
		return detail, nil
	case jsonparser.Array:
		groups, err := episodeGroups(value)
		if err != nil {
			return nil, err
		}
		return EpisodeList{Groups: groups}, nil
	default:
		return nil, fmt.Errorf("%w: info result is %s", errShape, kind)
	}
}

// episodeGroups accepts either a list of groups or a flat list of episodes.
func episodeGroups(value []byte) ([]EpisodeGroup, error) {
	var groups []EpisodeGroup

	if firstHas(value, "list") {
		if err := json.Unmarshal(value, &groups); err != nil {
			return nil, err
		}
	} else {
		var episodes []Episode
		if err := json.Unmarshal(value, &episodes); err != nil {
			return nil, err
		}
		groups = []EpisodeGroup{{List: episodes}}
	}

	for _, g := range groups {
		if _, bad := lo.Find(g.List, func(e Episode) bool { return e.URL == "" }); bad {
			return nil, fmt.Errorf("%w: episode without url", errShape)
		}
	}
	return groups, nil
}

func decodeMedia(data []byte) (Payload, error) {
	value, kind, err := envelope(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case jsonparser.Object:
		var bundle MediaBundle
		if err := json.Unmarshal(value, &bundle); err != nil {
			return nil, err
		}
		if len(bundle.Sources) == 0 {
			return nil, fmt.Errorf("%w: media without sources", errShape)
		}
		return bundle, nil
	case jsonparser.Array:
		var groups []ServerGroup
		if err := json.Unmarshal(value, &groups); err != nil {
			return nil, err
		}
		return ServerList{Groups: groups}, nil
	default:
		return nil, fmt.Errorf("%w: media result is %s", errShape, kind)
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/key"
	"github.com/anisan-cli/modhost/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a configuration key with its default value and description.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field with its current value for the terminal.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable that overrides the field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.Modhost + "_" + EnvKeyReplacer.Replace(f.Key))
}

// MarshalJSON includes the current value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Env         string `json:"env"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Env:         f.Env(),
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return fmt.Sprintf("%T", f.Value)
	}
}

// Default holds every configuration field by key.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

var fields = []Field{
	{key.LogsWrite, false, "Write logs"},
	{key.LogsLevel, "info", "Least verbose level that is logged"},
	{key.LogsJson, false, "Use json format for logs"},

	{key.CliColored, true, "Enable colored CLI output"},
	{key.IconsVariant, "plain", "Icons variant, nerd needs a nerd font"},

	{key.SurfaceHeadless, true, "Run the execution surface browser without a window"},
	{key.SurfaceStealth, true, "Apply anti-detection patches to the execution surface page"},
	{key.SurfaceRemoteURL, "", "DevTools websocket URL of an already running browser.\nA local browser is launched when empty"},
	{key.SurfaceReadyTimeout, 30, "Seconds to wait for a loaded document to become ready"},
	{key.SurfaceScriptTimeout, 30, "Seconds to wait for an injected module script to complete"},

	{key.HTTPTimeout, 60, "Seconds before a module request or download is abandoned"},
	{key.HTTPFingerprint, true, "Use a browser TLS fingerprint for module requests"},
	{key.HTTPUserAgent, constant.UserAgent, "User-Agent header sent with module requests"},

	{key.ModulesAllowDowngrade, false, "Allow replacing an installed module with an older version"},
	{key.SearchSuggestions, true, "Suggest previous queries when searching interactively"},
	{key.Player, "mpv", "Player that resolved streams are handed to"},
}

func init() {
	for _, f := range fields {
		if _, exists := Default[f.Key]; exists {
			panic("duplicate config key: " + f.Key)
		}
		Default[f.Key] = f
		EnvExposed = append(EnvExposed, f.Key)
	}
}

func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return style.Fg(color.Green)(strconv.FormatBool(value))
		}
		return style.Fg(color.Red)(strconv.FormatBool(value))
	case string:
		if value == "" {
			return style.Faint("empty")
		}
		return style.Fg(color.Yellow)(value)
	default:
		return fmt.Sprint(value)
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    viper.Get,
	"hl":       highlight,
	"typename": func(f *Field) string { return f.typeName() },
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl .Value }}
{{ blue "Type:" }}    {{ typename . }}`))

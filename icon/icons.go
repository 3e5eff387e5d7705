package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Lua Icon = iota + 1
	Web
	Selected
	Progress
	Success
	Fail
	Warn
	Info
	Play
	Secret
	Link
)

var icons = map[Icon]*iconDef{
	Lua:      {emoji: "🌙", nerd: "", plain: "Lua", kaomoji: "(◕‿◕)", squares: "◧"},
	Web:      {emoji: "🌐", nerd: "", plain: "Web", kaomoji: "(⌐■_■)", squares: "◨"},
	Selected: {emoji: "⭐", nerd: "", plain: "*", kaomoji: "(★ω★)", squares: "■"},
	Progress: {emoji: "👾", nerd: "", plain: "...", kaomoji: "(・_・;)", squares: "▫"},
	Success:  {emoji: "🎉", nerd: "", plain: "OK", kaomoji: "(ᵔ◡ᵔ)", squares: "▪"},
	Fail:     {emoji: "💀", nerd: "", plain: "X", kaomoji: "(×_×)", squares: "▬"},
	Warn:     {emoji: "⚠️", nerd: "", plain: "!", kaomoji: "(°ロ°)", squares: "▲"},
	Info:     {emoji: "💡", nerd: "", plain: "i", kaomoji: "(・ω・)", squares: "◆"},
	Play:     {emoji: "🎬", nerd: "", plain: ">", kaomoji: "(▀̿Ĺ̯▀̿)", squares: "▶"},
	Secret:   {emoji: "🔑", nerd: "", plain: "#", kaomoji: "(¬‿¬)", squares: "▦"},
	Link:     {emoji: "🔗", nerd: "", plain: "@", kaomoji: "(´・ω・)", squares: "▩"},
}

package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Mark
	Link
	Feed
	Track
	Video
	Play
	Pause
	Speed
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "\uf00d",
		plain:   "X",
		kaomoji: "(×_×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "\uf00c",
		plain:   "OK",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "\uf252",
		plain:   "...",
		kaomoji: "(￣ω￣;)",
		squares: "🟨",
	},
	Mark: {
		emoji:   "📌",
		nerd:    "\uf08d",
		plain:   "*",
		kaomoji: "(＾▽＾)",
		squares: "🟦",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "\uf0c1",
		plain:   "~",
		kaomoji: "(・・ )?",
		squares: "🟪",
	},
	Feed: {
		emoji:   "📻",
		nerd:    "\uf09e",
		plain:   "#",
		kaomoji: "(っ˘ω˘ς)",
		squares: "🟧",
	},
	Track: {
		emoji:   "🎧",
		nerd:    "\uf025",
		plain:   "-",
		kaomoji: "(◕‿◕)",
		squares: "⬜",
	},
	Video: {
		emoji:   "🎬",
		nerd:    "\uf03d",
		plain:   "[v]",
		kaomoji: "(⌐■_■)",
		squares: "⬛",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "\uf04b",
		plain:   ">",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "🟩",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "\uf04c",
		plain:   "||",
		kaomoji: "(－_－) zzZ",
		squares: "🟫",
	},
	Speed: {
		emoji:   "⏩",
		nerd:    "\uf04e",
		plain:   "x",
		kaomoji: "ε=ε=(ノ≧∇≦)ノ",
		squares: "🟨",
	},
}

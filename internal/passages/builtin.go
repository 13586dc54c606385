package passages

var builtin = []Passage{
	{
		Text:        "什么都可以缺少，慈悲喜舍不可少也；\n善事好心都可增加，贪瞋气恼不可增也。",
		Translation: "You can be short of anything as long as that thing is not loving-kindness, compassion, joy and equanimity.\nIncrease only good deeds and kind intentions, never greed, aversion, or anger.",
	},
	{
		Text:        "心如莲花,不染尘埃。\n道法自然,随缘自在。",
		Translation: "Let your heart be like a lotus flower, untainted by worldly dust.\nThe Way follows nature, adapting freely to circumstances.",
	},
	{
		Text:        "善恶两条路,修行看自己。\n菩提本无树,明镜亦非台。",
		Translation: "Good and evil are two separate paths, spiritual practice depends on oneself.\nBodhi originally has no tree, and the bright mirror is not a stand.",
	},
	{
		Text:        "放下屠刀,立地成佛。\n心中有佛,处处是道。",
		Translation: "Put down the butcher's knife and become a Buddha on the spot.\nWith Buddha in your heart, the Way is everywhere.",
	},
	{
		Text:        "种瓜得瓜,种豆得豆。\n因果循环,报应不爽。",
		Translation: "Sow melons, reap melons; sow beans, reap beans.\nKarma cycles with unfailing retribution.",
	},
}

// Default returns a copy of the built-in passages.
func Default() []Passage {
	return append([]Passage(nil), builtin...)
}

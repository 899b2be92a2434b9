package texts

// Fixed local pools used when the generation service is unreachable.

var commonWords = []string{
	"the", "be", "of", "and", "a", "to", "in", "he", "have", "it",
	"that", "for", "they", "with", "as", "not", "on", "she", "at", "by",
	"this", "we", "you", "do", "but", "from", "or", "which", "one", "would",
	"all", "will", "there", "say", "who", "make", "when", "can", "more", "if",
	"no", "man", "out", "other", "so", "what", "time", "up", "go", "about",
	"than", "into", "could", "state", "only", "new", "year", "some", "take", "come",
	"these", "know", "see", "use", "get", "like", "then", "first", "any", "work",
	"now", "may", "such", "give", "over", "think", "most", "even", "find", "day",
	"also", "after", "way", "many", "must", "look", "before", "great", "back", "through",
	"long", "where", "much", "should", "well", "people", "down", "own", "just", "because",
	"good", "each", "those", "feel", "seem", "how", "high", "too", "place", "little",
	"world", "very", "still", "nation", "hand", "old", "life", "tell", "write", "become",
	"here", "show", "house", "both", "between", "need", "mean", "call", "develop", "under",
	"last", "right", "move", "thing", "general", "school", "never", "same", "another", "begin",
	"while", "number", "part", "turn", "real", "leave", "might", "want", "point", "form",
	"off", "child", "few", "small", "since", "against", "ask", "late", "home", "interest",
	"large", "person", "end", "open", "public", "follow", "during", "present", "without", "again",
	"hold", "govern", "around", "possible", "head", "consider", "word", "program", "problem", "however",
	"lead", "system", "set", "order", "eye", "plan", "run", "keep", "face", "fact",
	"group", "play", "stand", "increase", "early", "course", "change", "help", "line", "city",
}

var sentencePunctuation = []rune{'.', ',', ';', ':', '!', '?'}

var shortQuotes = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Simplicity is the ultimate sophistication.",
	"Well done is better than well said.",
	"Stay hungry, stay foolish.",
}

var mediumQuotes = []string{
	"It is not the strongest of the species that survives, nor the most intelligent, but the one most responsive to change.",
	"The only way to do great work is to love what you do. If you have not found it yet, keep looking and do not settle.",
	"Success is not final, failure is not fatal: it is the courage to continue that counts in the end.",
}

var longQuotes = []string{
	"Twenty years from now you will be more disappointed by the things that you did not do than by the ones you did do. So throw off the bowlines. Sail away from the safe harbor. Catch the trade winds in your sails. Explore. Dream. Discover.",
	"I have learned over the years that when one's mind is made up, this diminishes fear; knowing what must be done does away with fear. The most common way people give up their power is by thinking they do not have any power at all.",
	"Perfection is finally attained not when there is no longer anything to add, but when there is no longer anything to take away. A designer knows he has achieved perfection not when there is nothing left to add, but when there is nothing left to take away.",
}

package toxicity

import "chatguard/domain"

// toxicKeywords tags Indonesian insults and complaints by severity.
// Lookups happen after leet-speak folding, so only canonical spellings are
// listed. Multi-word entries are matched as substrings, not tokens.
var toxicKeywords = map[string]domain.Severity{
	// Hard insults (direct harassment)
	"tolol":       domain.SeverityHard,
	"bego":        domain.SeverityHard,
	"bodoh":       domain.SeverityHard,
	"idiot":       domain.SeverityHard,
	"anjing":      domain.SeverityHard,
	"anjir":       domain.SeverityHard,
	"anjer":       domain.SeverityHard,
	"kontol":      domain.SeverityHard,
	"bangsat":     domain.SeverityHard,
	"brengsek":    domain.SeverityHard,
	"keparat":     domain.SeverityHard,
	"monyet":      domain.SeverityHard,
	"goblok":      domain.SeverityHard,
	"bajingan":    domain.SeverityHard,
	"oon":         domain.SeverityHard,
	"jancok":      domain.SeverityHard,
	"kampret":     domain.SeverityHard,
	"celeng":      domain.SeverityHard,
	"babi":        domain.SeverityHard,
	"sialan":      domain.SeverityHard,
	"kurang ajar": domain.SeverityHard,
	"geblek":      domain.SeverityHard,
	"dodol":       domain.SeverityHard,
	"setan":       domain.SeverityHard,
	"iblis":       domain.SeverityHard,

	// Crude language (often banter between friends)
	"tai":   domain.SeverityCrude,
	"puki":  domain.SeverityCrude,
	"memek": domain.SeverityCrude,

	// Mild complaints
	"nyebelin":    domain.SeverityMild,
	"menyebalkan": domain.SeverityMild,
	"benci":       domain.SeverityMild,
	"kesal":       domain.SeverityMild,
	"kesel":       domain.SeverityMild,
	"gemes":       domain.SeverityMild,
	"gondok":      domain.SeverityMild,
	"sengit":      domain.SeverityMild,
}

// positiveIndicators are apology / gratitude / affection / friendship terms
// whose presence (as substrings of the original text) marks a friendly
// conversation.
var positiveIndicators = []string{
	"kangen",
	"teman",
	"maaf",
	"minta maaf",
	"sorry",
	"sori",
	"makasih",
	"terima kasih",
	"thanks",
	"love",
	"sayang",
	"traktir",
	"sahabat",
	"akrab",
	"seru",
	"senang",
	"bahagia",
	"bangga",
	"nongkrong",
}

// friendlyPatterns catch slang constructions that read aggressive literally
// but are compliments in Indonesian chat ("gila sih", "mantap jiwa", ...).
var friendlyPatterns = []string{
	`gila\s+sih`,
	`keren\s+banget`,
	`niat\s+banget`,
	`mantap\s+(sih|jiwa|bro)?`,
	`rapi[h]?\s+banget`,
	`seru\s+(banget|abis|parah)?`,
	`asik\s+(banget)?`,
	`gokil\s+(banget|abis)?`,
}

package compass

import (
	"fmt"
	"strconv"
	"strings"
)

// ReplyContext carries the current best matches the assistant may talk about.
// Either field may be nil when nothing has been ranked yet.
type ReplyContext struct {
	Roommate *RoommateMatch
	Housing  *HousingRecommendation
}

// NewReplyContext picks the first entry of each ranking, if any.
func NewReplyContext(roommates []RoommateMatch, housing []HousingRecommendation) ReplyContext {
	var c ReplyContext
	if len(roommates) > 0 {
		c.Roommate = &roommates[0]
	}
	if len(housing) > 0 {
		c.Housing = &housing[0]
	}
	return c
}

// Rule is one step of the reply chain. Match receives lowercased input.
type Rule struct {
	Name  string
	Match func(lower string) bool
	Reply func(c ReplyContext) string
}

const (
	RuleGreeting       = "greeting"
	RuleRoommate       = "roommate"
	RuleHousing        = "housing"
	RuleRecommendation = "recommendation"
	RuleHelp           = "help"
)

var defaultRules = []Rule{
	{Name: RuleGreeting, Match: containsAny("hi", "hello"), Reply: greetingReply},
	{Name: RuleRoommate, Match: containsAny("roommate"), Reply: roommateReply},
	{Name: RuleHousing, Match: containsAny("housing", "apartment"), Reply: housingReply},
	{Name: RuleRecommendation, Match: containsAny("recommendation", "show"), Reply: recommendationReply},
	{Name: RuleHelp, Match: func(string) bool { return true }, Reply: helpReply},
}

// Rules returns the reply chain in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Respond returns the reply for text. The first rule whose predicate matches wins.
func Respond(text string, c ReplyContext) string {
	_, reply := Dispatch(text, c)
	return reply
}

// Dispatch is Respond that also reports which rule answered.
func Dispatch(text string, c ReplyContext) (rule string, reply string) {
	lower := strings.ToLower(text)
	for _, r := range defaultRules {
		if r.Match(lower) {
			return r.Name, r.Reply(c)
		}
	}
	// unreachable while the last rule matches everything
	return RuleHelp, helpReply(c)
}

func containsAny(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

func greetingReply(ReplyContext) string {
	return "Hi 👋! I'm Compass AI, ready to show your roommate or housing matches."
}

func roommateReply(c ReplyContext) string {
	if c.Roommate == nil {
		return "I don't have a roommate match for you yet. Set your preferences and ask again."
	}
	return fmt.Sprintf("Your top roommate match is **%s** with a compatibility score of %.2f. 🎯",
		c.Roommate.Roommate.Name, c.Roommate.Score)
}

func housingReply(c ReplyContext) string {
	if c.Housing == nil {
		return "I don't have a housing recommendation for you yet. Set your budget and ask again."
	}
	l := c.Housing.Listing
	return fmt.Sprintf("I recommend **%s**: $%s rent, %s type, %s mi away. 🏢",
		l.Name, formatAmount(l.Rent), l.Type, formatMiles(l.DistanceMiles))
}

func recommendationReply(ReplyContext) string {
	return "Tap ✨ *Generate AI Recommendations* above to see your personalized matches."
}

func helpReply(ReplyContext) string {
	return "I can help with roommates and housing. Try: 'Who's my best roommate?' or 'Show housing near campus.' 💡"
}

// formatAmount prints whole amounts without a fraction (950, not 950.00).
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatMiles always keeps one fractional digit (1.0, 0.8).
func formatMiles(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Package resolver implements the rule engine that maps chat text to a
// reply. Rules are an explicit ordered list evaluated first-match-wins:
// the ordering is a contract, not an accident. A message containing both
// "time" and "joke" always resolves through the time rule.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/providers"
)

// MemoryStore is the slice of the persistence gateway the resolver needs
type MemoryStore interface {
	AddMemoryFact(accountID, topic, info string) error
	ListMemoryFacts(accountID string) ([]MemoryFact, error)
	SearchMemoryFacts(accountID, token string) ([]string, error)
}

// MemoryFact is a stored (topic, info) pair
type MemoryFact struct {
	Topic string
	Info  string
}

// Fixed reply strings. Resolve never returns an error: lookup and network
// failures degrade to one of these.
const (
	replyTeachTooShort  = "Can you tell me something meaningful to remember?"
	replyTeachStored    = "Got it! I'll remember that 🙂"
	replyTeachFailed    = "I couldn't save that right now, try again in a bit."
	replyNothingStored  = "I don't have any memories saved yet."
	replyMemoryFailed   = "I couldn't reach my memories right now, try again in a bit."
	replyNoMeaning      = "Couldn't find the meaning, buddy."
	replyNoWeather      = "Couldn't fetch weather."
	replyDefault        = "Hmm, I’m not fully sure about that, but I'm learning everyday! Try asking differently 🙂"
	rememberThatPrefix  = "remember that"
	meaningOfPrefix     = "meaning of"
	weatherInPrefix     = "weather in"
	minRememberedLength = 3
)

var greetings = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
	"yo":    true,
}

// input carries one message through the rule chain. Normalized text drives
// matching; the original casing is preserved for content that is stored or
// echoed back.
type input struct {
	accountID  string
	username   string
	original   string
	normalized string
}

// rule pairs a predicate with its handler
type rule struct {
	name   string
	match  func(in input) bool
	handle func(ctx context.Context, in input) string
}

// Resolver maps a chat message to a reply using ordered pattern rules
type Resolver struct {
	memory MemoryStore
	facts  providers.FactSet
	logger logger.Logger
	clock  func() time.Time
	zone   *time.Location
	rules  []rule
}

// New creates a resolver backed by the given memory store and fact providers
func New(memory MemoryStore, facts providers.FactSet, log logger.Logger) *Resolver {
	r := &Resolver{
		memory: memory,
		facts:  facts,
		logger: log,
		clock:  time.Now,
		zone:   indianTimeZone(),
	}

	r.rules = []rule{
		{name: "greeting", match: r.matchGreeting, handle: r.handleGreeting},
		{name: "time", match: matchContains("time"), handle: r.handleTime},
		{name: "date", match: matchContains("date"), handle: r.handleDate},
		{name: "recall_all", match: matchContains("what do you remember"), handle: r.handleRecallAll},
		{name: "teach", match: matchPrefix(rememberThatPrefix), handle: r.handleTeach},
		{name: "recall_keyword", match: r.matchKeywordRecall, handle: r.handleKeywordRecall},
		{name: "dictionary", match: matchPrefix(meaningOfPrefix), handle: r.handleDictionary},
		{name: "weather", match: matchPrefix(weatherInPrefix), handle: r.handleWeather},
		{name: "joke", match: matchContains("joke"), handle: r.handleJoke},
		{name: "advice", match: matchContains("advice"), handle: r.handleAdvice},
		{name: "encyclopedia", match: r.matchSummary, handle: r.handleSummary},
		{name: "default", match: matchAlways, handle: r.handleDefault},
	}

	return r
}

// Resolve produces a reply for one chat message. It never fails; every
// branch output passes through the personality formatter exactly once.
func (r *Resolver) Resolve(ctx context.Context, accountID, username, rawText string) string {
	in := input{
		accountID:  accountID,
		username:   username,
		original:   rawText,
		normalized: strings.TrimSpace(strings.ToLower(rawText)),
	}

	for _, rule := range r.rules {
		if rule.match(in) {
			r.logger.Debug("intent matched", map[string]interface{}{
				"rule":       rule.name,
				"account_id": accountID,
			})
			return buddyStyle(rule.handle(ctx, in))
		}
	}

	// The default rule always matches; this is unreachable.
	return buddyStyle(replyDefault)
}

// Predicates

func (r *Resolver) matchGreeting(in input) bool {
	return greetings[in.normalized]
}

func matchContains(substr string) func(input) bool {
	return func(in input) bool {
		return strings.Contains(in.normalized, substr)
	}
}

func matchPrefix(prefix string) func(input) bool {
	return func(in input) bool {
		return strings.HasPrefix(in.normalized, prefix)
	}
}

func matchAlways(input) bool {
	return true
}

// matchKeywordRecall fires when any whitespace token of the message matches
// a stored memory topic by substring
func (r *Resolver) matchKeywordRecall(in input) bool {
	_, found := r.firstKeywordHit(in)
	return found
}

func (r *Resolver) matchSummary(in input) bool {
	// Only worth asking the encyclopedia for non-empty text
	return in.normalized != ""
}

// Handlers

func (r *Resolver) handleGreeting(_ context.Context, in input) string {
	return fmt.Sprintf("Hey %s! What's up?", in.username)
}

func (r *Resolver) handleTime(_ context.Context, _ input) string {
	now := r.clock().In(r.zone)
	return fmt.Sprintf("The current time (IST) is %s.", now.Format("03:04 PM"))
}

func (r *Resolver) handleDate(_ context.Context, _ input) string {
	return fmt.Sprintf("Today's date is %s.", r.clock().Format("02 January 2006"))
}

func (r *Resolver) handleRecallAll(_ context.Context, in input) string {
	facts, err := r.memory.ListMemoryFacts(in.accountID)
	if err != nil {
		r.logger.Error("memory listing failed", err, map[string]interface{}{"account_id": in.accountID})
		return replyMemoryFailed
	}

	if len(facts) == 0 {
		return replyNothingStored
	}

	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("- %s: %s", f.Topic, f.Info))
	}
	return "Here's what I remember:\n" + strings.Join(lines, "\n")
}

func (r *Resolver) handleTeach(_ context.Context, in input) string {
	// Strip the matched prefix from the original-case text so the stored
	// fact keeps the user's casing.
	trimmed := strings.TrimSpace(in.original)
	remainder := strings.TrimSpace(trimmed[len(rememberThatPrefix):])
	if utf8.RuneCountInString(remainder) < minRememberedLength {
		return replyTeachTooShort
	}

	topic := strings.Fields(remainder)[0]
	if err := r.memory.AddMemoryFact(in.accountID, topic, remainder); err != nil {
		r.logger.Error("memory store failed", err, map[string]interface{}{"account_id": in.accountID})
		return replyTeachFailed
	}

	return replyTeachStored
}

func (r *Resolver) handleKeywordRecall(_ context.Context, in input) string {
	hit, found := r.firstKeywordHit(in)
	if !found {
		// search failed between match and handle
		return replyDefault
	}
	return hit
}

// firstKeywordHit scans whitespace tokens in order and returns the info of
// the first stored fact whose topic contains a token. Search failures are
// swallowed: recall degrades to no-match rather than an error.
func (r *Resolver) firstKeywordHit(in input) (string, bool) {
	for _, token := range strings.Fields(in.normalized) {
		infos, err := r.memory.SearchMemoryFacts(in.accountID, token)
		if err != nil {
			r.logger.Error("memory search failed", err, map[string]interface{}{"account_id": in.accountID})
			return "", false
		}
		if len(infos) > 0 {
			return infos[0], true
		}
	}
	return "", false
}

func (r *Resolver) handleDictionary(ctx context.Context, in input) string {
	word := strings.TrimSpace(strings.TrimPrefix(in.normalized, meaningOfPrefix))
	result := r.facts.Dictionary(ctx, word)
	if !result.OK {
		return replyNoMeaning
	}
	return fmt.Sprintf("The meaning of %s is: %s", word, result.Value)
}

func (r *Resolver) handleWeather(ctx context.Context, in input) string {
	city := strings.TrimSpace(strings.TrimPrefix(in.normalized, weatherInPrefix))
	result := r.facts.Weather(ctx, city)
	if !result.OK {
		return replyNoWeather
	}
	return fmt.Sprintf("Here's the weather update: %s", result.Value)
}

func (r *Resolver) handleJoke(ctx context.Context, _ input) string {
	return r.facts.Joke(ctx)
}

func (r *Resolver) handleAdvice(ctx context.Context, _ input) string {
	return r.facts.Advice(ctx)
}

func (r *Resolver) handleSummary(ctx context.Context, in input) string {
	result := r.facts.Summary(ctx, in.normalized)
	if !result.OK {
		return replyDefault
	}
	return result.Value
}

func (r *Resolver) handleDefault(_ context.Context, _ input) string {
	return replyDefault
}

// buddyStyle is the personality formatter: a pure transform appending a
// light decorative suffix, applied uniformly to every branch's output.
func buddyStyle(text string) string {
	return text + " 🙂"
}

// indianTimeZone resolves Asia/Kolkata, falling back to a fixed UTC+5:30
// zone when the host has no tz database.
func indianTimeZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+30*60)
	}
	return loc
}

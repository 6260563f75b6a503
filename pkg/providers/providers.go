// Package providers implements the external fact provider set. Each
// provider wraps exactly one outbound network call and returns either a
// value or an Absent result. Transport failures, malformed responses and
// missing fields never escape a provider as an error.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/buddylabs/buddy/pkg/config"
)

// Result is the outcome of a provider fetch. OK=false means Absent: no
// value is available, which is distinct from an error.
type Result struct {
	Value string
	OK    bool
}

// Absent is the no-value result
func Absent() Result {
	return Result{}
}

// Value wraps a fetched value
func Value(v string) Result {
	return Result{Value: v, OK: true}
}

const (
	jokeFallback   = "Couldn't fetch a joke right now 🙂"
	adviceFallback = "Couldn't fetch advice right now 🙂"
)

// FactSet is the capability interface the intent resolver consumes
type FactSet interface {
	Dictionary(ctx context.Context, word string) Result
	Weather(ctx context.Context, city string) Result
	Summary(ctx context.Context, topic string) Result
	Joke(ctx context.Context) string
	Advice(ctx context.Context) string
}

// Set bundles one HTTP client per external fact source
type Set struct {
	dictionary *resty.Client
	joke       *resty.Client
	advice     *resty.Client
	weather    *resty.Client
	wikipedia  *resty.Client
}

// NewSet creates the provider set from configured base URLs
func NewSet(cfg config.ProvidersConfig) *Set {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	newClient := func(baseURL string) *resty.Client {
		client := resty.New()
		client.SetBaseURL(baseURL)
		client.SetTimeout(timeout)
		client.SetHeader("User-Agent", "Buddy/1.0")
		return client
	}

	return &Set{
		dictionary: newClient(cfg.DictionaryURL),
		joke:       newClient(cfg.JokeURL),
		advice:     newClient(cfg.AdviceURL),
		weather:    newClient(cfg.WeatherURL),
		wikipedia:  newClient(cfg.WikipediaURL),
	}
}

// dictionaryEntry mirrors the dictionaryapi.dev response shape
type dictionaryEntry struct {
	Word     string `json:"word"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Dictionary looks up the first definition of a word
func (s *Set) Dictionary(ctx context.Context, word string) Result {
	var entries []dictionaryEntry
	resp, err := s.dictionary.R().
		SetContext(ctx).
		SetResult(&entries).
		Get("/api/v2/entries/en/" + url.PathEscape(word))

	if err != nil || resp.StatusCode() != 200 {
		return Absent()
	}

	if len(entries) == 0 || len(entries[0].Meanings) == 0 || len(entries[0].Meanings[0].Definitions) == 0 {
		return Absent()
	}

	return Value(entries[0].Meanings[0].Definitions[0].Definition)
}

// jokeResponse mirrors the official-joke-api response shape
type jokeResponse struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
}

// Joke fetches a random joke. It never fails outward: any transport or
// decoding problem yields the fixed fallback string.
func (s *Set) Joke(ctx context.Context) string {
	var joke jokeResponse

	err := retry.Do(
		func() error {
			resp, reqErr := s.joke.R().
				SetContext(ctx).
				SetResult(&joke).
				Get("/random_joke")
			if reqErr != nil {
				return reqErr
			}
			if resp.StatusCode() != 200 {
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
	)

	if err != nil || joke.Setup == "" {
		return jokeFallback
	}

	return fmt.Sprintf("%s — %s", joke.Setup, joke.Punchline)
}

// adviceResponse mirrors the adviceslip response shape
type adviceResponse struct {
	Slip struct {
		Advice string `json:"advice"`
	} `json:"slip"`
}

// Advice fetches a random piece of advice, with the same never-fail
// contract as Joke.
func (s *Set) Advice(ctx context.Context) string {
	var advice adviceResponse

	err := retry.Do(
		func() error {
			resp, reqErr := s.advice.R().
				SetContext(ctx).
				SetResult(&advice).
				// adviceslip serves JSON with a text/html content type;
				// force decoding into the result struct.
				ForceContentType("application/json").
				Get("/advice")
			if reqErr != nil {
				return reqErr
			}
			if resp.StatusCode() != 200 {
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
	)

	if err != nil || advice.Slip.Advice == "" {
		return adviceFallback
	}

	return advice.Slip.Advice
}

// Weather fetches a one-line weather report for a city
func (s *Set) Weather(ctx context.Context, city string) Result {
	resp, err := s.weather.R().
		SetContext(ctx).
		SetQueryParam("format", "3").
		Get("/" + url.PathEscape(city))

	if err != nil || resp.StatusCode() != 200 {
		return Absent()
	}

	report := strings.TrimSpace(resp.String())
	if report == "" {
		return Absent()
	}

	return Value(report)
}

// summaryResponse mirrors the Wikipedia REST summary response shape
type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// summarySentences is how much of an encyclopedia extract is returned
const summarySentences = 2

// Summary fetches an encyclopedia summary for a topic, trimmed to two
// sentences.
func (s *Set) Summary(ctx context.Context, topic string) Result {
	var summary summaryResponse
	resp, err := s.wikipedia.R().
		SetContext(ctx).
		SetResult(&summary).
		Get("/api/rest_v1/page/summary/" + url.PathEscape(topic))

	if err != nil || resp.StatusCode() != 200 {
		return Absent()
	}

	extract := strings.TrimSpace(summary.Extract)
	if extract == "" {
		return Absent()
	}

	return Value(firstSentences(extract, summarySentences))
}

// firstSentences returns at most n sentences of text, splitting on
// terminal punctuation.
func firstSentences(text string, n int) string {
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(text[:i+1])
			}
		}
	}
	return text
}

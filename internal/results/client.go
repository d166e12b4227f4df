package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"PickTracker/internal/model"
)

// ClientOptions configures the provider client.
type ClientOptions struct {
	// BaseURLs maps a sport name to its provider base URL,
	// e.g. "MLB" -> "https://v1.baseball.api-sports.io".
	BaseURLs map[string]string
	APIKey   string
	// Timeout bounds one lookup end to end, retries included.
	Timeout time.Duration
	// MaxRetryElapsed caps the exponential backoff of a single HTTP call.
	MaxRetryElapsed time.Duration
	RequestsPerSec  int
}

// Client resolves events against the API-Sports games endpoints. The lookup
// cache keeps provider event ids and completed outcomes so the same event is
// not searched twice. Unmatched events are never cached: an event the
// provider has not listed yet must be re-queried on the next run.
type Client struct {
	opts    ClientOptions
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	providerID int64
	outcome    *model.Outcome
}

// NewClient creates a provider client with rate limiting and retry defaults.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 20 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		logger:  log.With().Str("component", "results").Logger(),
		cache:   make(map[string]*cacheEntry),
	}
}

// apiResponse is the envelope every API-Sports endpoint wraps results in.
type apiResponse struct {
	Response []apiGame `json:"response"`
}

type apiGame struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Long string `json:"long"`
	} `json:"status"`
	Teams struct {
		Home apiTeam `json:"home"`
		Away apiTeam `json:"away"`
	} `json:"teams"`
	Scores struct {
		Home apiScore `json:"home"`
		Away apiScore `json:"away"`
	} `json:"scores"`
	Winner *apiTeam `json:"winner"`
}

type apiTeam struct {
	Name string `json:"name"`
}

// apiScore tolerates both shapes the provider uses: a bare number and an
// object with a "total" field.
type apiScore struct {
	Total decimal.Decimal
	Set   bool
}

func (s *apiScore) UnmarshalJSON(data []byte) error {
	var n decimal.Decimal
	if err := json.Unmarshal(data, &n); err == nil {
		s.Total, s.Set = n, true
		return nil
	}
	var obj struct {
		Total *decimal.Decimal `json:"total"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Total != nil {
		s.Total, s.Set = *obj.Total, true
	}
	return nil
}

// Lookup implements Source.
func (c *Client) Lookup(ctx context.Context, sport string, event model.EventDetails) (*model.Outcome, error) {
	base, ok := c.opts.BaseURLs[sport]
	if !ok {
		c.logger.Warn().Str("sport", sport).Msg("no provider endpoint configured for sport")
		return nil, ErrNoMatch
	}

	key := sport + "|" + event.Game + "|" + event.Date
	c.mu.Lock()
	entry := c.cache[key]
	c.mu.Unlock()

	switch {
	case entry == nil:
	case entry.outcome != nil:
		return entry.outcome, nil
	case entry.providerID != 0:
		// Found earlier but unresolved; confirm by id only.
		return c.lookupByID(ctx, base, entry.providerID, event, key)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	home, _, _ := event.Participants()
	q := url.Values{}
	q.Set("date", event.Date)
	q.Set("search", home)
	var resp apiResponse
	if err := c.getJSON(ctx, base+"/games?"+q.Encode(), &resp); err != nil {
		c.logger.Warn().Err(err).Str("game", event.Game).Msg("provider lookup failed, will retry next run")
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}

	game := c.matchGame(resp.Response, event)
	if game == nil {
		return nil, ErrNoMatch
	}
	if !finished(game) {
		c.remember(key, &cacheEntry{providerID: game.ID})
		return nil, ErrNotAvailable
	}
	out, err := toOutcome(game, event)
	if err != nil {
		// Keep the id so the next attempt skips the search.
		c.remember(key, &cacheEntry{providerID: game.ID})
		return nil, err
	}
	c.remember(key, &cacheEntry{providerID: game.ID, outcome: out})
	return out, nil
}

func (c *Client) lookupByID(ctx context.Context, base string, id int64, event model.EventDetails, key string) (*model.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var resp apiResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/games?id=%d", base, id), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if len(resp.Response) == 0 {
		return nil, ErrNotAvailable
	}
	game := &resp.Response[0]
	if !finished(game) {
		return nil, ErrNotAvailable
	}
	out, err := toOutcome(game, event)
	if err != nil {
		return nil, err
	}
	c.remember(key, &cacheEntry{providerID: id, outcome: out})
	return out, nil
}

func (c *Client) remember(key string, entry *cacheEntry) {
	c.mu.Lock()
	c.cache[key] = entry
	c.mu.Unlock()
}

// matchGame picks the response entry whose participants and date both agree
// with the event description. Name comparison is normalized, not fuzzy.
func (c *Client) matchGame(games []apiGame, event model.EventDetails) *apiGame {
	home, away, pair := event.Participants()
	for i := range games {
		g := &games[i]
		if !sameDay(g.Date, event.Date) {
			continue
		}
		if pair {
			straight := SameName(home, g.Teams.Home.Name) && SameName(away, g.Teams.Away.Name)
			flipped := SameName(home, g.Teams.Away.Name) && SameName(away, g.Teams.Home.Name)
			if straight || flipped {
				return g
			}
			continue
		}
		if SameName(home, g.Teams.Home.Name) || SameName(home, g.Teams.Away.Name) {
			return g
		}
	}
	return nil
}

func finished(g *apiGame) bool { return g.Status.Long == "Finished" }

// sameDay compares provider timestamps (RFC3339 or bare date) against the
// event's calendar date.
func sameDay(providerDate, eventDate string) bool {
	if len(providerDate) < len("2006-01-02") {
		return false
	}
	return providerDate[:len("2006-01-02")] == eventDate
}

// toOutcome converts a finished provider game. A two-sided event that
// finished without both final scores cannot be settled; the caller surfaces
// the error and the pick stays pending.
func toOutcome(g *apiGame, event model.EventDetails) (*model.Outcome, error) {
	_, _, pair := event.Participants()
	if pair && (!g.Scores.Home.Set || !g.Scores.Away.Set) {
		return nil, fmt.Errorf("event %d finished without final scores", g.ID)
	}
	out := &model.Outcome{
		ProviderID: g.ID,
		Completed:  true,
		Home:       model.Participant{Name: g.Teams.Home.Name, Score: g.Scores.Home.Total},
		Away:       model.Participant{Name: g.Teams.Away.Name, Score: g.Scores.Away.Total},
		Single:     !pair && g.Teams.Away.Name == "",
	}
	if g.Winner != nil {
		out.Winner = g.Winner.Name
	}
	return out, nil
}

// getJSON performs one rate-limited GET with exponential backoff on
// transient failures. Non-retriable HTTP statuses fail immediately.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	var body []byte
	operation := func() error {
		// Each attempt draws from the request budget, retries included.
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-rapidapi-key", c.opts.APIKey)
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("provider status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("provider status %d", resp.StatusCode))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.opts.MaxRetryElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

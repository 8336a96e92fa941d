package lichess

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloudchess/lambot/internal/domains/dtos"
)

const DefaultBaseUrl = "https://lichess.org"

// Client talks to the remote game server with bot-scoped token auth.
type Client struct {
	http    *http.Client
	baseUrl string
	token   string
}

func NewClient(token string) *Client {
	return NewClientWithBase(token, DefaultBaseUrl)
}

func NewClientWithBase(token, baseUrl string) *Client {
	return &Client{
		http:    new(http.Client),
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		token:   token,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// post issues a POST and treats any non-2xx status as an error.
func (c *Client) post(ctx context.Context, path string, form url.Values) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s rejected with status %d: %s", path, resp.StatusCode, detail)
	}
	return nil
}

func (c *Client) getJson(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s rejected with status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}

func (c *Client) AcceptChallenge(ctx context.Context, challengeId string) error {
	return c.post(ctx, "/api/challenge/"+challengeId+"/accept", nil)
}

func (c *Client) DeclineChallenge(ctx context.Context, challengeId, reason string) error {
	form := url.Values{}
	if reason != "" {
		form.Set("reason", reason)
	}
	return c.post(ctx, "/api/challenge/"+challengeId+"/decline", form)
}

func (c *Client) SubmitMove(ctx context.Context, gameId, uciMove string) error {
	return c.post(ctx, "/api/bot/game/"+gameId+"/move/"+uciMove, nil)
}

func (c *Client) AbortGame(ctx context.Context, gameId string) error {
	return c.post(ctx, "/api/bot/game/"+gameId+"/abort", nil)
}

func (c *Client) ResignGame(ctx context.Context, gameId string) error {
	return c.post(ctx, "/api/bot/game/"+gameId+"/resign", nil)
}

func (c *Client) CreateChallenge(ctx context.Context, userId string, rated bool, limit dtos.TimeLimit) error {
	form := url.Values{}
	form.Set("rated", strconv.FormatBool(rated))
	form.Set("clock.limit", strconv.Itoa(limit.LimitSecs))
	form.Set("clock.increment", strconv.Itoa(limit.IncrementSecs))
	return c.post(ctx, "/api/challenge/"+userId, form)
}

func (c *Client) UserStatus(ctx context.Context, ids ...string) ([]UserStatus, error) {
	var statuses []UserStatus
	path := "/api/users/status?ids=" + url.QueryEscape(strings.Join(ids, ","))
	if err := c.getJson(ctx, path, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) UserRating(ctx context.Context, userId, perf string) (int, error) {
	var user BotInfo
	if err := c.getJson(ctx, "/api/user/"+userId, &user); err != nil {
		return 0, err
	}
	rating, ok := user.RatingFor(perf)
	if !ok {
		return 0, fmt.Errorf("no %s rating for %s", perf, userId)
	}
	return rating, nil
}

// OnlineBots lists currently online bot accounts, at most limit of them.
func (c *Client) OnlineBots(ctx context.Context, limit int) ([]BotInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/bot/online?nb="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("online bots rejected with status %d", resp.StatusCode)
	}
	var bots []BotInfo
	decoder := json.NewDecoder(resp.Body)
	for decoder.More() {
		var bot BotInfo
		if err := decoder.Decode(&bot); err != nil {
			return nil, fmt.Errorf("failed to decode bot listing: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

package lichess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

// StreamEvents opens the account-level NDJSON event feed. The event
// channel is closed when the stream ends for any reason; the error
// channel then yields the cause (io.EOF for a server-side close).
func (c *Client) StreamEvents(ctx context.Context) (<-chan Event, <-chan error) {
	return stream[Event](c, ctx, "/api/stream/event")
}

// StreamGame opens the per-game NDJSON state feed for one game id.
func (c *Client) StreamGame(ctx context.Context, gameId string) (<-chan GameEvent, <-chan error) {
	return stream[GameEvent](c, ctx, "/api/bot/game/stream/"+gameId)
}

func stream[T any](c *Client, ctx context.Context, path string) (<-chan T, <-chan error) {
	out := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			errc <- err
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			errc <- fmt.Errorf("failed to open stream %s: %w", path, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			errc <- fmt.Errorf("stream %s rejected with status %d", path, resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				// keep-alive newline
				continue
			}
			var v T
			if err := json.Unmarshal(line, &v); err != nil {
				logging.Warn("skipping undecodable stream line",
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- err
			return
		}
		errc <- io.EOF
	}()
	return out, errc
}

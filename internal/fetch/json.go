package fetch

import (
	"context"
	"encoding/json"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
)

// JSON fetches url through the engine and decodes the body into T.
func JSON[T any](ctx context.Context, e *Engine, url string) (T, error) {
	var value T
	body, err := e.Get(ctx, url)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(body, &value); err != nil {
		return value, apperr.Internalf(err, "decode response from %s", url)
	}
	return value, nil
}

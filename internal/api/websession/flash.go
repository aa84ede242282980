package websession

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// Flash kinds, rendered as success and error banners.
const (
	FlashSuccess = "successMessage"
	FlashError   = "errorMessage"
)

// Flashes holds the messages popped for one page render.
type Flashes struct {
	Success []string
	Error   []string
}

// Empty reports whether there is nothing to show.
func (f Flashes) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

// AddFlash queues msg for the next page render.
func AddFlash(c echo.Context, kind, msg string) error {
	s, err := load(c)
	if err != nil {
		return err
	}
	s.AddFlash(msg, kind)
	if err := s.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// PopFlashes returns and clears the queued messages. A request without a
// usable session simply has none.
func PopFlashes(c echo.Context) Flashes {
	var out Flashes
	s, err := load(c)
	if err != nil {
		return out
	}
	out.Success = toStrings(s.Flashes(FlashSuccess))
	out.Error = toStrings(s.Flashes(FlashError))
	if !out.Empty() {
		_ = s.Save(c.Request(), c.Response())
	}
	return out
}

func toStrings(vals []interface{}) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

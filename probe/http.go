package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"

	"github.com/nauticalops/armada/model"
)

// maxProbeBodyBytes caps how much of an HTTP probe's response body is
// read when checking match_regex, so a misbehaving target can't make a
// probe attempt block on an unbounded body.
const maxProbeBodyBytes = 1 << 20

type httpChecker struct {
	check *model.HTTPCheck
	host  string
	port  int
}

func (c *httpChecker) Tag() string { return "http(" + c.check.Port + ")" }

func (c *httpChecker) Check(ctx context.Context) error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	url := fmt.Sprintf("%s://%s%s", c.check.Scheme, addr, c.check.Path)

	req, err := http.NewRequestWithContext(ctx, c.check.Method, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// spec.md §4.4: "success if match_regex is set and matches response
	// body, else if status code is 2xx" — the regex, when present, is the
	// sole success criterion and is checked regardless of status code.
	if c.check.MatchRegex != "" {
		re, err := regexp.Compile(c.check.MatchRegex)
		if err != nil {
			return fmt.Errorf("match_regex: %w", err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
		if err != nil {
			return err
		}
		if !re.Match(body) {
			return fmt.Errorf("response body did not match %q", c.check.MatchRegex)
		}
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}

package swarm

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/swarmtail/internal/logstream"
)

// StreamURL builds the websocket endpoint for a session. The scheme follows
// the API root: http becomes ws and https becomes wss.
func (c *Client) StreamURL(s logstream.Session) string {
	return BuildStreamURL(c.baseURL, s)
}

// BuildStreamURL appends docker/logs/<id> and the session parameters to base.
func BuildStreamURL(base *url.URL, s logstream.Session) string {
	u := *base
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	path := u.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = path + logsPath + s.Source.ID
	u.RawPath = ""
	u.Fragment = ""

	values := url.Values{}
	values.Set("tail", strconv.Itoa(s.Tail))
	values.Set("since", s.Since)
	values.Set("follow", strconv.FormatBool(s.Follow))
	values.Set("timestamps", strconv.FormatBool(s.Timestamps))
	values.Set("stdout", strconv.FormatBool(s.Stdout))
	values.Set("stderr", strconv.FormatBool(s.Stderr))
	values.Set("details", strconv.FormatBool(s.Details))
	u.RawQuery = values.Encode()
	return u.String()
}

package web

// Client maps each site-internal feature to one operation: build the
// endpoint url, issue the request through the authenticated session,
// validate the status, and parse the response into plain records.
type Client struct {
	session *Session
}

func NewClient(session *Session) *Client {
	return &Client{session: session}
}

func (c *Client) Session() *Session {
	return c.session
}

package sdk

import "context"

// Client is the entry point for applications. It bundles the dispatcher with
// the typed domain services that sit on top of it.
//
// Example:
//
//	client, err := sdk.NewClient(sdk.DefaultConfig().WithMock(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if _, err := client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: "x"}); err != nil {
//	    log.Fatal(err)
//	}
//	courses, err := client.Courses.GetAllCourses(ctx, nil)
//
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	*Dispatcher

	Users         *UserService
	Courses       *CourseService
	Conversations *ConversationService
	Subscriptions *SubscriptionService
}

// NewClient creates a client with the provided configuration.
// If config is nil, default configuration values will be used.
func NewClient(config *Config) (*Client, error) {
	d, err := NewDispatcher(config)
	if err != nil {
		return nil, err
	}
	return newClient(d, d.Config()), nil
}

// NewClientWithRequester builds the domain services over any Requester. config
// is validated and supplies the endpoints and session store.
func NewClientWithRequester(r Requester, config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newClient(r, config), nil
}

func newClient(r Requester, config *Config) *Client {
	base := service{r: r, config: config}
	c := &Client{
		Users:         &UserService{base},
		Courses:       &CourseService{base},
		Conversations: &ConversationService{base},
		Subscriptions: &SubscriptionService{base},
	}
	if d, ok := r.(*Dispatcher); ok {
		c.Dispatcher = d
	}
	return c
}

// Session returns the store holding the token and cached user.
func (c *Client) Session() SessionStore {
	return c.Users.session()
}

// LoggedIn reports whether a token is currently stored.
func (c *Client) LoggedIn(ctx context.Context) bool {
	token, err := c.Session().Token(ctx)
	return err == nil && token != ""
}

// CurrentUser returns the cached session user, or nil when logged out.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	return sessionUser(ctx, c.Session())
}

// Close releases resources held by the dispatcher.
func (c *Client) Close() error {
	if c.Dispatcher == nil {
		return nil
	}
	return c.Dispatcher.Close()
}

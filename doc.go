/*
Package wdkit manages the lifecycle of WebDriver browser sessions.

It wraps the github.com/tebeka/selenium client with a single entry point that
turns a declarative Config into a live Session, guarantees the underlying
browser process or remote grid slot is released on every exit path, and
retries transient connection failures against a remote grid with exponential
backoff.

A Session is acquired either locally, by starting a chromedriver or
geckodriver service and connecting to it, or remotely, by opening a session
against a Selenium grid endpoint. Scoped is the preferred entry point:

	cfg := wdkit.Config{
		Browser:  wdkit.Chrome,
		Headless: true,
	}
	err := wdkit.Scoped(ctx, cfg, func(ctx context.Context, s *wdkit.Session) error {
		wd := s.Driver()
		if err := wd.Get("https://example.com"); err != nil {
			return err
		}
		title, err := wd.Title()
		if err != nil {
			return err
		}
		fmt.Println(title)
		return nil
	})

The session is released before Scoped returns, whether the body succeeds,
fails or panics. For remote sessions, set Endpoint to the grid hub URL:

	cfg := wdkit.Config{
		Browser:        wdkit.Chrome,
		Endpoint:       "http://hub:4444/wd/hub",
		MaxRetries:     3,
		RetryBackoff:   100 * time.Millisecond,
		ConnectTimeout: 30 * time.Second,
	}

Connection-refused, network timeouts and grid 5xx replies are retried;
malformed capabilities and grid 4xx replies fail immediately. The
classification policy can be replaced via Config.Classify.

Everything beyond session lifecycle (locators, waits, actions) is the
underlying library's job; use the selenium.WebDriver returned by
Session.Driver directly.
*/
package wdkit

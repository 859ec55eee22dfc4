package sentryconf

import "time"

const (
	DSN          = "https://0a315f27d7ab4d9e96a2bcbf1f902c91@o4505999123.ingest.sentry.io/4505999127"
	FlushTimeout = 2 * time.Second
)

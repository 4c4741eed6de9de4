package app

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Config holds runtime wiring options for building the client.
type Config struct {
	Home            string       // config directory, e.g. $HOME/.wcnotify
	RelayURL        string       // relay websocket URL, e.g. wss://relay.example.org
	KeyserverURL    string       // identity keyserver base URL
	NotifyServerURL string       // notify server domain or URL (did.json host)
	Logger          zerolog.Logger
	HTTP            *http.Client // optional; defaults to http.DefaultClient
}

package config

// ElasticsearchConfig holds the connection settings for the event
// search index.
type ElasticsearchConfig struct {
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
}

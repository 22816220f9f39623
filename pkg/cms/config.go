package cms

import "time"

// Backend selects the Store implementation.
type Backend string

const (
	BackendCosmic Backend = "cosmic"
	BackendMongo  Backend = "mongo"
	BackendMemory Backend = "memory"
)

type Config struct {
	Backend         Backend       `env:"CMS_BACKEND" envDefault:"cosmic"`
	BucketSlug      string        `env:"COSMIC_BUCKET_SLUG"`
	ReadKey         string        `env:"COSMIC_READ_KEY"`
	WriteKey        string        `env:"COSMIC_WRITE_KEY"`
	APIURL          string        `env:"COSMIC_API_URL" envDefault:"https://api.cosmicjs.com/v3"`
	WorkersURL      string        `env:"COSMIC_WORKERS_URL" envDefault:"https://workers.cosmicjs.com/v3"`
	Timeout         time.Duration `env:"COSMIC_TIMEOUT" envDefault:"30s"`
	CacheTTL        time.Duration `env:"CMS_CACHE_TTL" envDefault:"0s"`
	MongoCollection string        `env:"CMS_MONGO_COLLECTION" envDefault:"objects"`
}

// Valid reports whether the backend name is known.
func (b Backend) Valid() bool {
	switch b {
	case BackendCosmic, BackendMongo, BackendMemory:
		return true
	}
	return false
}

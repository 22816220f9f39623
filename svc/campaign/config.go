package campaign

import "time"

type Config struct {
	// BatchSize caps how many messages are in flight at once.
	BatchSize int `env:"SEND_BATCH_SIZE" envDefault:"50"`
	// BatchDelay pauses between batches; zero sends back to back.
	BatchDelay time.Duration `env:"SEND_BATCH_DELAY" envDefault:"0s"`
	// SendTimeout bounds each batch; messages still in flight count as
	// failed.
	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`
	// Queue is the task queue scheduled sends are enqueued on.
	Queue string `env:"SEND_QUEUE" envDefault:"campaigns"`
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return 50
	}
	return c.BatchSize
}

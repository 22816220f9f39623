package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu      sync.Mutex
	cache   = make(map[reflect.Type]any)
	dotenv  sync.Once
	envFile = ".env"
)

// Load parses environment variables into v. The result is cached per type,
// so a second call with the same struct type does not touch the environment.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenv.Do(func() {
		// A missing .env file is the normal case in containers.
		_ = godotenv.Load(envFile)
	})

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = parsed
	*v = parsed

	return nil
}

// MustLoad is Load that panics on failure. Use it for settings the process
// cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Cached returns the previously loaded value of type T.
func Cached[T any]() (T, error) {
	mu.Lock()
	defer mu.Unlock()

	cached, ok := cache[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, ErrConfigNotLoaded
	}
	return cached.(T), nil
}

// Reset clears the parsed-config cache.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cache = make(map[reflect.Type]any)
}

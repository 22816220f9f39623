// Package config loads typed configuration structs from the process
// environment.
//
// A `.env` file in the working directory is read once on first use (missing
// files are ignored), then the environment is parsed with
// github.com/caarlos0/env/v11 into the struct passed to Load. Every struct
// type is parsed at most once; later calls for the same type return the
// cached copy.
//
//	var cfg cms.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Reset drops the cache and is meant for tests that change the environment.
package config

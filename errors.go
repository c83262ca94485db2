package vaultgen

import (
	"errors"
	"os"
)

var errEmptyCachePath = errors.New("cache entry has an empty path")

func panicOrError(err error) error {
	if err != nil {
		if os.Getenv("PANIC_ON_ALL_ERRORS") == "true" || os.Getenv("PANIC_ON_VAULTGEN_ERRORS") == "true" {
			panic(err)
		}
	}
	return err
}

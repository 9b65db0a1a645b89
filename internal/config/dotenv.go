package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"allowance-app-go/pkg/logger"
	"github.com/joho/godotenv"
)

const dotenvFilename = ".env"

// loadDotEnv exports variables from the nearest .env file found walking up
// from the working directory. Variables already present in the process
// environment win. A missing file is not an error.
func loadDotEnv(log logger.Logger) error {
	path, ok, err := nearestFile(dotenvFilename)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug("dotenv: no file found", "name", dotenvFilename)
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	var exported, kept int
	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			kept++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
		exported++
	}

	log.Info("dotenv: loaded", "path", path, "exported", exported, "kept_from_env", kept)
	return nil
}

func nearestFile(name string) (string, bool, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false, err
	}

	for {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

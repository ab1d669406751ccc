package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultEndpoint = "localhost:8090"
	defaultLogLevel = "error"
	defaultEnv      = "production"
)

// Config is built once at startup and never changed afterwards.
type Config struct {
	token         string
	adminID       int64
	dsn           string
	endpoint      string
	logLevel      string
	env           string
	authSecretKey string
	// generatedSecret is set when authSecretKey was made up at startup.
	generatedSecret bool
}

// flagValues holds what was passed on the command line.
type flagValues struct {
	token    string
	adminID  string
	dsn      string
	endpoint string
}

type lookupEnv func(key string) (string, bool)

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// NewConfig reads the configuration of the bot. Environment variables win
// over flags. A missing token, admin id or database is an error.
func NewConfig(flags flagValues, lookup lookupEnv) (Config, error) {
	config, adminID := readConfig(flags, lookup)

	var errs []error

	if config.token == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}

	if adminID == "" {
		errs = append(errs, errors.New("ADMIN_ID is required"))
	} else {
		id, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_ID must be a numeric telegram user id: %w", err))
		}
		config.adminID = id
	}

	if config.dsn == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return config, nil
}

// NewMigrateConfig only needs the database.
func NewMigrateConfig(flags flagValues, lookup lookupEnv) (Config, error) {
	config, _ := readConfig(flags, lookup)

	if config.dsn == "" {
		return Config{}, errors.New("DATABASE_URI is required")
	}

	return config, nil
}

func readConfig(flags flagValues, lookup lookupEnv) (Config, string) {
	config := Config{
		token:    flags.token,
		dsn:      flags.dsn,
		endpoint: flags.endpoint,
		logLevel: defaultLogLevel,
		env:      defaultEnv,
	}
	adminID := flags.adminID

	if token, ok := lookup("TELEGRAM_TOKEN"); ok && token != "" {
		config.token = strings.TrimSpace(token)
	}

	if id, ok := lookup("ADMIN_ID"); ok && id != "" {
		adminID = strings.TrimSpace(id)
	}

	if d, ok := lookup("DATABASE_URI"); ok && d != "" {
		config.dsn = d
	}

	// An explicitly empty RUN_ADDRESS turns the HTTP API off.
	if address, ok := lookup("RUN_ADDRESS"); ok {
		config.endpoint = address
	}

	if l, ok := lookup("LOG_LEVEL"); ok && l != "" {
		config.logLevel = l
	}

	if e, ok := lookup("ENV"); ok && e != "" {
		config.env = e
	}

	if secret, ok := lookup("AUTH_SECRET_KEY"); ok && secret != "" {
		config.authSecretKey = secret
	} else if config.env == defaultEnv {
		config.authSecretKey = generateRandomString(32)
		config.generatedSecret = true
	} else {
		config.authSecretKey = "development-key"
	}

	return config, adminID
}

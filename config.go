package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds everything the app needs to start. In development the
// zero-config defaults below are enough; in production every secret must
// come from a .config.json file.
type Config struct {
	Port       int            `json:"port"`
	Env        string         `json:"env"`
	Pepper     string         `json:"pepper"`
	HMACKey    string         `json:"hmac_key"`
	CSRFKey    string         `json:"csrf_key"`
	SessionKey string         `json:"session_key"`
	Github     GithubConfig   `json:"github"`
	Database   PostgresConfig `json:"database"`
}

// IsProd reports whether the app runs with production settings.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type GithubConfig struct {
	ID          string `json:"id"`
	Secret      string `json:"secret"`
	RedirectURL string `json:"redirect_url"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (pc PostgresConfig) Dialect() string {
	return "postgres"
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:       1111,
		Env:        "dev",
		Pepper:     "secret-random-string",
		HMACKey:    "secret-hmac-key",
		CSRFKey:    "32-byte-long-auth-key-change-me!",
		SessionKey: "secret-session-key",
		Database:   DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "inkwell",
	}
}

// LoadConfig reads .config.json if present. Without the file it falls back
// to DefaultConfig in development and panics in production.
func LoadConfig(prodBool bool) Config {
	f, err := os.Open(".config.json")
	if err != nil {
		if prodBool {
			panic("running in production without a .config.json file")
		}
		return DefaultConfig()
	}
	defer f.Close()
	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		panic(err)
	}
	fmt.Println("Successfully loaded .config.json")
	return c
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpPort int    `yaml:"http_port"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	JwtTTL time.Duration `yaml:"jwt_ttl" validate:"required"` // seconds

	DiscussionsPerPage int `yaml:"discussions_per_page" validate:"required,min=1"`
	PostsPerPage       int `yaml:"posts_per_page" validate:"required,min=1"`
	MaxPageLimit       int `yaml:"max_page_limit" validate:"required,min=1"` // caps client supplied limit

	RelevantPostsPerDiscussion int    `yaml:"relevant_posts_per_discussion" validate:"min=1,max=2"`
	ExcerptLength              int    `yaml:"excerpt_length"`
	FulltextLanguage           string `yaml:"fulltext_language"`
	// "-1" (while alone), "reply" (until someone replies) or a number of minutes
	AllowRenaming string `yaml:"allow_renaming" validate:"required"`

	SearchRPS   float64 `yaml:"search_rps"`
	SearchBurst int     `yaml:"search_burst"`
	WriteRPS    float64 `yaml:"write_rps"`
	WriteBurst  int     `yaml:"write_burst"`

	SecureCookies bool     `yaml:"secure_cookies"`
	CorsOrigins   []string `yaml:"cors_origins"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL * time.Second
}

func (p *Public) setDefaults() {
	if p.HttpPort == 0 {
		p.HttpPort = 8080
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	if p.RelevantPostsPerDiscussion == 0 {
		p.RelevantPostsPerDiscussion = 2
	}
	if p.ExcerptLength == 0 {
		p.ExcerptLength = 200
	}
	if p.FulltextLanguage == "" {
		p.FulltextLanguage = "english"
	}
	if p.SearchRPS == 0 {
		p.SearchRPS = 10
	}
	if p.SearchBurst == 0 {
		p.SearchBurst = 20
	}
	if p.WriteRPS == 0 {
		p.WriteRPS = 1
	}
	if p.WriteBurst == 0 {
		p.WriteBurst = 5
	}
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file: " + err.Error())
	}
}

// applyEnv lets deployments keep secrets out of private.yaml.
// A .env file in the working directory is loaded first if present.
func applyEnv(private *Private) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("can't load .env file: " + err.Error())
	}
	if v, ok := os.LookupEnv("FORUM_PG_HOST"); ok {
		private.Pg.Host = v
	}
	if v, ok := os.LookupEnv("FORUM_PG_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic("FORUM_PG_PORT must be an integer")
		}
		private.Pg.Port = port
	}
	if v, ok := os.LookupEnv("FORUM_PG_USER"); ok {
		private.Pg.User = v
	}
	if v, ok := os.LookupEnv("FORUM_PG_PASSWORD"); ok {
		private.Pg.Password = v
	}
	if v, ok := os.LookupEnv("FORUM_PG_DBNAME"); ok {
		private.Pg.Dbname = v
	}
	if v, ok := os.LookupEnv("FORUM_JWT_KEY"); ok {
		private.JwtKey = v
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.setDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	applyEnv(&private)

	cfg := &Config{public, private}
	if err := validator.New().Struct(cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %s", err))
	}
	return cfg
}

package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cloudchess/lambot/internal/openings"
	"github.com/spf13/viper"
)

const appConfigVar = "APP_CONFIG"

// Config is the full configuration surface, loadable either from a
// yaml file (local runner) or from the APP_CONFIG environment variable
// as JSON (Lambda processes).
type Config struct {
	Token string `json:"token"`
	BotId string `json:"botId"`

	Variant          string   `json:"variant"`
	AcceptRated      bool     `json:"acceptRated"`
	AcceptCasual     bool     `json:"acceptCasual"`
	MinInitialSecs   int      `json:"minInitialSecs"`
	MaxInitialSecs   int      `json:"maxInitialSecs"`
	MinIncrementSecs int      `json:"minIncrementSecs"`
	MaxIncrementSecs int      `json:"maxIncrementSecs"`
	AllowedOpponents []string `json:"allowedOpponents"`
	BlockedOpponents []string `json:"blockedOpponents"`
	BypassUsers      []string `json:"bypassUsers"`

	MaxDailyChallenges     int `json:"maxDailyChallenges"`
	MaxDailyUserChallenges int `json:"maxDailyUserChallenges"`

	RetryWaitDurationSecs int `json:"retryWaitDurationSecs"`
	StatusPollGapSecs     int `json:"statusPollGapSecs"`
	MaxStreamLifeMins     int `json:"maxStreamLifeMins"`

	AbortAfterSecs       int `json:"abortAfterSecs"`
	InvocationBudgetSecs int `json:"invocationBudgetSecs"`
	MaxRecursionDepth    int `json:"maxRecursionDepth"`

	GameFunctionName      string               `json:"gameFunctionName"`
	MoveFunctionName      string               `json:"moveFunctionName"`
	RateLimitTableName    string               `json:"rateLimitTableName"`
	MatchRecordsTableName string               `json:"matchRecordsTableName"`
	OpeningTable          openings.TableConfig `json:"openingTable"`

	RedisUrl   string `json:"redisUrl"`
	EnginePath string `json:"enginePath"`
}

func (c Config) Policy() ChallengePolicy {
	return ChallengePolicy{
		Variant:          c.Variant,
		AcceptRated:      c.AcceptRated,
		AcceptCasual:     c.AcceptCasual,
		MinInitialSecs:   c.MinInitialSecs,
		MaxInitialSecs:   c.MaxInitialSecs,
		MinIncrementSecs: c.MinIncrementSecs,
		MaxIncrementSecs: c.MaxIncrementSecs,
		AllowedOpponents: c.AllowedOpponents,
		BlockedOpponents: c.BlockedOpponents,
	}
}

func (c Config) ConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		BotId:         c.BotId,
		RetryWait:     time.Duration(c.RetryWaitDurationSecs) * time.Second,
		StatusPollGap: time.Duration(c.StatusPollGapSecs) * time.Second,
		MaxStreamLife: time.Duration(c.MaxStreamLifeMins) * time.Minute,
		Policy:        c.Policy(),
		BypassUsers:   c.BypassUsers,
	}
}

func (c Config) SessionConfig() SessionConfig {
	return SessionConfig{
		BotId:             c.BotId,
		AbortAfter:        time.Duration(c.AbortAfterSecs) * time.Second,
		InvocationBudget:  time.Duration(c.InvocationBudgetSecs) * time.Second,
		MaxRecursionDepth: c.MaxRecursionDepth,
	}
}

// LoadConfig reads configs/bot.yaml with environment overrides.
func LoadConfig() Config {
	viper.SetConfigName("bot")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	viper.AutomaticEnv()

	var config Config
	config.Token = viper.GetString("Bot.Token")
	config.BotId = viper.GetString("Bot.Id")

	config.Variant = viper.GetString("Challenge.Variant")
	config.AcceptRated = viper.GetBool("Challenge.AcceptRated")
	config.AcceptCasual = viper.GetBool("Challenge.AcceptCasual")
	config.MinInitialSecs = viper.GetInt("Challenge.MinInitialSecs")
	config.MaxInitialSecs = viper.GetInt("Challenge.MaxInitialSecs")
	config.MinIncrementSecs = viper.GetInt("Challenge.MinIncrementSecs")
	config.MaxIncrementSecs = viper.GetInt("Challenge.MaxIncrementSecs")
	config.AllowedOpponents = viper.GetStringSlice("Challenge.AllowedOpponents")
	config.BlockedOpponents = viper.GetStringSlice("Challenge.BlockedOpponents")
	config.BypassUsers = viper.GetStringSlice("Challenge.BypassUsers")

	config.MaxDailyChallenges = viper.GetInt("RateLimit.MaxDailyChallenges")
	config.MaxDailyUserChallenges = viper.GetInt("RateLimit.MaxDailyUserChallenges")

	config.RetryWaitDurationSecs = viper.GetInt("EventLoop.RetryWaitDurationSecs")
	config.StatusPollGapSecs = viper.GetInt("EventLoop.StatusPollGapSecs")
	config.MaxStreamLifeMins = viper.GetInt("EventLoop.MaxStreamLifeMins")

	config.AbortAfterSecs = viper.GetInt("Game.AbortAfterSecs")
	config.InvocationBudgetSecs = viper.GetInt("Game.InvocationBudgetSecs")
	config.MaxRecursionDepth = viper.GetInt("Game.MaxRecursionDepth")

	config.GameFunctionName = viper.GetString("Aws.GameFunctionName")
	config.MoveFunctionName = viper.GetString("Aws.MoveFunctionName")
	config.RateLimitTableName = viper.GetString("Aws.RateLimitTableName")
	config.MatchRecordsTableName = viper.GetString("Aws.MatchRecordsTableName")
	config.OpeningTable.Name = viper.GetString("Aws.OpeningTable.Name")
	config.OpeningTable.PositionKey = viper.GetString("Aws.OpeningTable.PositionKey")
	config.OpeningTable.MoveKey = viper.GetString("Aws.OpeningTable.MoveKey")
	config.OpeningTable.MaxDepth = viper.GetInt("Aws.OpeningTable.MaxDepth")

	config.RedisUrl = viper.GetString("Local.RedisUrl")
	config.EnginePath = viper.GetString("Local.EnginePath")

	return config
}

// ConfigFromEnv parses the APP_CONFIG JSON document, the configuration
// path for Lambda processes.
func ConfigFromEnv() (Config, error) {
	raw := os.Getenv(appConfigVar)
	if raw == "" {
		return Config{}, fmt.Errorf("no value found for env var %s", appConfigVar)
	}
	var config Config
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", appConfigVar, err)
	}
	return config, nil
}

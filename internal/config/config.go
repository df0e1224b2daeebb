package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		BotName string `yaml:"bot_name" env-default:"SolBuddyBot"`
		Enabled bool   `yaml:"enabled" env-default:"true"`
	} `yaml:"telegram"`
	Solana struct {
		RpcURL          string  `yaml:"rpc_url" env:"SOLANA_RPC" env-default:""`
		Commitment      string  `yaml:"commitment" env-default:"confirmed"`
		OwnerAddress    string  `yaml:"owner_address" env:"OWNER_ADDRESS" env-default:""`
		OwnerPrivateKey string  `yaml:"owner_private_key" env:"OWNER_PRIVATE_KEY" env-default:""`
		AirdropAmount   float64 `yaml:"airdrop_amount" env-default:"1"`
		AirdropCooldown int     `yaml:"airdrop_cooldown_minutes" env-default:"60"`
	} `yaml:"solana"`
	Session struct {
		TTLMinutes       int  `yaml:"ttl_minutes" env-default:"30"`
		Persist          bool `yaml:"persist" env-default:"false"`
		DiceResolveDelay int  `yaml:"dice_resolve_delay_seconds" env-default:"3"`
	} `yaml:"session"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

// MustLoad reads the config file and aborts the process when it is missing
// or a required external endpoint is not set.
func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if instance.Solana.RpcURL == "" {
			log.Fatal("solana rpc url is not configured")
		}
	})
	return instance
}

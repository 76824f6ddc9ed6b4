package env

import (
	"log"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadEnv reads the given .env files into the process environment, then lets
// viper resolve every key from the environment.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.AutomaticEnv()
}

func GetString(key, fallback string) string {
	if !viper.IsSet(key) {
		return fallback
	}

	return viper.GetString(key)
}

func GetInt(key string, fallback int) int {
	if !viper.IsSet(key) {
		return fallback
	}

	val, err := strconv.Atoi(viper.GetString(key))
	if err != nil {
		return fallback
	}

	return val
}

func GetBool(key string, fallback bool) bool {
	if !viper.IsSet(key) {
		return fallback
	}

	val, err := strconv.ParseBool(viper.GetString(key))
	if err != nil {
		return fallback
	}

	return val
}

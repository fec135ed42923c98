package config

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv              = "LASTBITE_APP_ENV"
	EnvPort                = "LASTBITE_APP_PORT"
	EnvDataDir             = "LASTBITE_DATA_DIR"
	EnvProductsFile        = "LASTBITE_PRODUCTS_FILE"
	EnvRedisURL            = "LASTBITE_REDIS_URL"
	EnvClassifierModelURL  = "LASTBITE_CLASSIFIER_MODEL_URL"
	EnvClassifierTimeout   = "LASTBITE_CLASSIFIER_TIMEOUT"
	EnvClassifierThreshold = "LASTBITE_CLASSIFIER_CONFIDENCE_THRESHOLD"
	EnvGeminiEnabled       = "LASTBITE_GEMINI_ENABLED"
	EnvCORSAllowedOrigins  = "LASTBITE_CORS_ALLOWED_ORIGINS"
)

package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
AuthHub: authentication and authorization service.

Usage:
  authhub -mode=<api|worker> [-config-path=config.yaml]
  authhub -help

Modes:
  api      serves the public and internal HTTP API, the audit websocket
           stream, /metrics and /swagger/
  worker   consumes audit entries from RabbitMQ into Postgres and cleans
           expired entries out of the token blacklist

Flags:
  -mode          application mode (or APP_MODE)
  -config-path   YAML file flattened into environment variables; variables
                 already set in the environment win
  -help          show this message

Main environment variables:
  DATABASE_HOST, DATABASE_PORT, DATABASE_USER, DATABASE_PASSWORD, DATABASE_DATABASE
  REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
  RABBITMQ_ENABLED, RABBITMQ_HOST, RABBITMQ_PORT, RABBITMQ_USER, RABBITMQ_PASSWORD
  HTTP_HOST, HTTP_PORT
  AUTH_JWT_SECRET or AUTH_RSA_PRIVATE_KEY_PATH, AUTH_KEY_ID, AUTH_ISSUER
  AUTH_ACCESS_TOKEN_TTL, AUTH_REFRESH_TOKEN_TTL, AUTH_BCRYPT_COST
  AUTH_SERVICE_TOKENS (comma separated), AUTH_TRUST_GATEWAY_HEADERS
  RATE_LIMIT_ENABLED, RATE_LIMIT_WINDOW, RATE_LIMIT_IP, RATE_LIMIT_USER, RATE_LIMIT_ENDPOINT
  AUDIT_ENABLED, AUDIT_BUFFER_SIZE
  OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SAMPLE_RATIO
  LOG_LEVEL (debug, info, warn, error)
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

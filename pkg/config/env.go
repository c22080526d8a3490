package config

const (
	EnvPrefix = "WEDPLAN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "WEDPLAN_APP_ENV"
	EnvPort     = "WEDPLAN_APP_PORT"
	EnvLogLevel = "WEDPLAN_LOG_LEVEL"

	EnvDBDSN  = "WEDPLAN_DB_DSN"
	EnvDBHost = "WEDPLAN_DB_HOST"
	EnvDBUser = "WEDPLAN_DB_USER"
	EnvDBName = "WEDPLAN_DB_NAME"

	EnvRedisURL = "WEDPLAN_REDIS_URL"

	EnvGCPProjectID = "WEDPLAN_GCP_PROJECT_ID"
	EnvGCSBucket    = "WEDPLAN_GCS_BUCKET_NAME"

	EnvPubSubBillingTopic      = "WEDPLAN_PUBSUB_BILLING_TOPIC"
	EnvPubSubBillingSub        = "WEDPLAN_PUBSUB_BILLING_SUBSCRIPTION"
	EnvPubSubFinalizationTopic = "WEDPLAN_PUBSUB_FINALIZATION_TOPIC"
	EnvPubSubFinalizationSub   = "WEDPLAN_PUBSUB_FINALIZATION_SUBSCRIPTION"

	EnvBillingDepositPercent  = "WEDPLAN_BILLING_DEFAULT_DEPOSIT_PERCENT"
	EnvBillingFinalDueOffset  = "WEDPLAN_BILLING_DEFAULT_FINAL_DUE_OFFSET_DAYS"
	EnvBillingDepositOverride = "WEDPLAN_BILLING_DEPOSIT_PERCENT_OVERRIDES"
	EnvBillingOffsetOverride  = "WEDPLAN_BILLING_FINAL_DUE_OFFSET_OVERRIDES"

	EnvJWTSecret = "WEDPLAN_JWT_SECRET"
	EnvJWTIssuer = "WEDPLAN_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

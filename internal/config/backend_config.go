package config

const (
	seedPasswordVar = "SEED_PASSWORD"
	seedUsersVar    = "SEED_USERS"
	janitorVar      = "JANITOR_SCHEDULE"
)

// BackendConfig holds the settings of the development backend
type BackendConfig interface {
	GetSeedUsers() bool
	GetSeedPassword() string
	GetJanitorSchedule() string
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetSeedUsers() bool {
	return GetBoolEnv(seedUsersVar, true)
}

// GetSeedPassword is the password every seeded account is created with
func (Backend) GetSeedPassword() string {
	return GetEnv(seedPasswordVar, "Deliver123")
}

// GetJanitorSchedule is the cron spec for purging expired refresh tokens
func (Backend) GetJanitorSchedule() string {
	return GetEnv(janitorVar, "@every 10m")
}

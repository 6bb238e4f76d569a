package config

const (
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisDBVar        = "REDIS_DB"
	storeKeyPrefixVar = "STORE_KEY_PREFIX"
)

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetStoreKeyPrefix() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetRedisAddr is empty when no redis is configured; callers fall back to memory
func (Store) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (Store) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Store) GetRedisDB() int {
	return GetIntEnv(redisDBVar, 0)
}

func (Store) GetStoreKeyPrefix() string {
	return GetEnv(storeKeyPrefixVar, "deliveryctl:")
}

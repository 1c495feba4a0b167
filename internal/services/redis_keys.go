package services

const (
	KeyUser      = "user:%s"
	KeyUserIndex = "users"
	KeyRateLimit = "ratelimit:%s:%s"
)

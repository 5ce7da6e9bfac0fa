package cache

import "fmt"

type EntityType string

const (
	EntityStudent   EntityType = "student"
	EntityAdmin     EntityType = "admin"
	EntityApplicant EntityType = "applicant"
)

type KeyType string

const (
	KeyID    KeyType = "id"
	KeyEmail KeyType = "email"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

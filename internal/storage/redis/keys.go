package redis

import "fmt"

// Key prefix for all campus data
const keyPrefix = "campus"

// studentKey returns the Redis key for a StudentRecord
func studentKey(id int64) string {
	return fmt.Sprintf("%s:student:%d", keyPrefix, id)
}

// studentIDIndexKey returns the Redis key for the student_id -> record id index
func studentIDIndexKey(studentID string) string {
	return fmt.Sprintf("%s:idx:student_id:%s", keyPrefix, studentID)
}

// accountKey returns the Redis key for an Account
func accountKey(id int64) string {
	return fmt.Sprintf("%s:account:%d", keyPrefix, id)
}

// emailIndexKey expects a normalized email
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// handleIndexKey expects a normalized handle
func handleIndexKey(handle string) string {
	return fmt.Sprintf("%s:idx:handle:%s", keyPrefix, handle)
}

// linkedStudentsKey returns the Redis key for the SET of linked record ids
func linkedStudentsKey() string {
	return fmt.Sprintf("%s:linked_students", keyPrefix)
}

func studentSeqKey() string {
	return fmt.Sprintf("%s:seq:student", keyPrefix)
}

func accountSeqKey() string {
	return fmt.Sprintf("%s:seq:account", keyPrefix)
}

package models_test

import (
	"chatdraft/backend/internal/models"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	user := &models.User{
		Name:    "Marian Salazar",
		Aliases: pq.StringArray{"mari", "ms"},
	}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	// Act - GORM would call this automatically
	err := user.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err)
	parsedUUID, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsedUUID)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Marian"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID, "BeforeCreate should preserve existing ID")
}

// TestChannelBeforeCreate_UniqueIDs verifies unique UUIDs are generated for multiple channels.
func TestChannelBeforeCreate_UniqueIDs(t *testing.T) {
	channels := []*models.Channel{{Name: "general"}, {Name: "random"}, {Name: "dev"}}
	generated := make(map[string]bool)

	for _, ch := range channels {
		assert.NoError(t, ch.BeforeCreate(nil))
		assert.NotContains(t, generated, ch.ID, "Each channel should have a unique ID")
		generated[ch.ID] = true
	}

	assert.Len(t, generated, len(channels))
}

// TestStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Contains(t, idField.Tag.Get("json"), "id")

	aliasesField, found := userType.FieldByName("Aliases")
	assert.True(t, found)
	assert.Contains(t, aliasesField.Tag.Get("gorm"), "type:text[]", "Aliases should use PostgreSQL array type")

	membersField, found := reflect.TypeOf(models.Channel{}).FieldByName("MemberIDs")
	assert.True(t, found)
	assert.Contains(t, membersField.Tag.Get("gorm"), "type:text[]", "MemberIDs should use PostgreSQL array type")

	ttField, found := reflect.TypeOf(models.Message{}).FieldByName("Timetoken")
	assert.True(t, found)
	assert.Contains(t, ttField.Tag.Get("gorm"), "uniqueIndex:idx_channel_timetoken")
}

// TestUserExternalID_NullableUnique verifies that users without an external ID
// are stored as NULL so they never collide on the unique index.
func TestUserExternalID_NullableUnique(t *testing.T) {
	field, found := reflect.TypeOf(models.User{}).FieldByName("ExternalID")
	assert.True(t, found)
	assert.Equal(t, reflect.Ptr, field.Type.Kind(), "ExternalID must be nullable")
	assert.Contains(t, field.Tag.Get("gorm"), "uniqueIndex")

	a := &models.User{Name: "a"}
	b := &models.User{Name: "b"}
	assert.Nil(t, a.ExternalID)
	assert.Nil(t, b.ExternalID)

	tg := "12345"
	c := &models.User{Name: "c", ExternalID: &tg}
	assert.Equal(t, "12345", *c.ExternalID)
}

func TestChannelHasMember(t *testing.T) {
	ch := models.Channel{MemberIDs: pq.StringArray{"u1", "u2"}}

	assert.True(t, ch.HasMember("u2"))
	assert.False(t, ch.HasMember("u3"))
	assert.False(t, (&models.Channel{}).HasMember("u1"))
}

// BenchmarkUserBeforeCreate measures UUID generation performance.
func BenchmarkUserBeforeCreate(b *testing.B) {
	user := &models.User{Name: "benchmark_user"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		user.ID = ""
		_ = user.BeforeCreate(nil)
	}
}

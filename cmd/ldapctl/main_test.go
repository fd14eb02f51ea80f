package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/ldap-console/internal/models"
)

func hero() models.DirectoryEntry {
	return models.NewEntry("uid=arjuna,ou=people", map[string]models.AttributeValue{
		"objectClass": models.MultiValue("top", "MahabharataUser"),
		"uid":         models.ScalarValue("arjuna"),
		"rank":        models.ScalarValue("archer"),
		"realm":       models.ScalarValue("Indraprastha"),
	})
}

func TestNewConsoleUsesClassifierEnvironment(t *testing.T) {
	t.Setenv("PERSON_CLASSES", "MahabharataUser")
	t.Setenv("ROLE_ATTRIBUTE", "rank")
	t.Setenv("REALM_ATTRIBUTE", "realm")

	c, _, err := newConsole(&cobra.Command{})
	require.NoError(t, err)

	assert.Equal(t, models.User, c.Classifier().Classify(hero()))

	user := c.Classifier().UserSummary(hero())
	assert.Equal(t, "archer", user.Detail)
	assert.Equal(t, "Indraprastha", user.SubDetail)
}

func TestNewConsoleDefaultsIgnoreUnknownClasses(t *testing.T) {
	t.Setenv("PERSON_CLASSES", "")

	c, _, err := newConsole(&cobra.Command{})
	require.NoError(t, err)
	assert.Equal(t, models.Other, c.Classifier().Classify(hero()))
}

func TestLoadSettingsFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PERSON_CLASSES", "Villager")
	t.Setenv("MAX_PAGE_SIZE", "500")
	t.Cleanup(func() {
		personClasses = nil
		maxPageSize = 1000
	})

	cmd := &cobra.Command{}
	cmd.Flags().StringSliceVar(&personClasses, "person-class", nil, "")
	cmd.Flags().IntVar(&maxPageSize, "max-page-size", 1000, "")
	require.NoError(t, cmd.Flags().Set("person-class", "MahabharataUser"))

	st, err := loadSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"MahabharataUser"}, st.PersonClasses)
	assert.Equal(t, 500, st.MaxPageSize)
	assert.Equal(t, "role", st.RoleAttribute)
	assert.Equal(t, "kingdom", st.RealmAttribute)
	assert.Equal(t, "isAdmin", st.AdminAttribute)
}

func TestLoadSettingsRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("MAX_PAGE_SIZE", "lots")

	_, err := loadSettings(&cobra.Command{})
	assert.ErrorContains(t, err, "invalid environment")
}

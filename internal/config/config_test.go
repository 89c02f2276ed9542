package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	require.Equal(t, DriverMemory, cfg.Driver)
	require.Equal(t, 6, cfg.Feed.PageSize)
	require.Equal(t, 10*time.Second, cfg.Timeouts.Fetch)
	require.Equal(t, 8*time.Second, cfg.Timeouts.Lookup)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Mutation)
	require.Equal(t, "posts", cfg.Firestore.PostsCollection)
}

func TestLoad_FromYAML(t *testing.T) {
	v := readYAML(t, `
app:
  port: "9090"
store:
  driver: Firestore
firestore:
  project_id: blog-dev
feed:
  page_size: 10
timeouts:
  fetch: 3s
admins:
  - owner@example.com
`)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, DriverFirestore, cfg.Driver)
	require.Equal(t, "blog-dev", cfg.Firestore.ProjectID)
	require.Equal(t, 10, cfg.Feed.PageSize)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Fetch)
	require.Equal(t, []string{"owner@example.com"}, cfg.Admins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":            "store:\n  driver: cassandra\n",
		"firestore without project": "store:\n  driver: firestore\n",
		"postgres without host":     "store:\n  driver: postgres\n",
		"zero page size":            "feed:\n  page_size: 0\n",
		"negative timeout":          "timeouts:\n  mutation: -1s\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("FIRESTORE_PROJECT_ID", "")
			t.Setenv("POSTGRES_HOST", "")
			_, err := Load(readYAML(t, doc))
			require.Error(t, err)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Username: "u", Password: "p", Host: "h", Port: "5432", DBName: "blog"}
	require.Equal(t, "postgres://u:p@h:5432/blog?sslmode=disable", c.DSN())
}

package emby

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListUsers(t *testing.T) {
	t.Run("prefers user endpoint with api key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/emby/Users", r.URL.Path)
			assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
			w.Header().Set("content-type", "application/json")
			w.Write([]byte(`[{"Id":"u1","Name":"admin","Policy":{"IsAdministrator":true}},{"Id":"u2","Name":"kid"}]`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "secret")
		require.NoError(t, err)

		users, err := c.ListUsers(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "u1", users[0].ID)
		assert.True(t, users[0].Policy.IsAdministrator)
		assert.False(t, users[1].Policy.IsAdministrator)
	})

	t.Run("no api key param when unset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("api_key"))
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "")
		require.NoError(t, err)

		users, err := c.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c, err := New(srv.URL, "bad")
		require.NoError(t, err)

		_, err = c.ListUsers(context.Background())
		assert.Error(t, err)
	})
}

func TestClient_UserItem(t *testing.T) {
	t.Run("fetches item provider ids", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/emby/Users/u1/Items/42", r.URL.Path)
			w.Write([]byte(`{"Id":"42","Name":"Foo","Type":"Movie","ProviderIds":{"Tmdb":"100","IMDB":"tt1"}}`))
		}))
		defer srv.Close()

		c, err := New(srv.URL, "secret")
		require.NoError(t, err)

		item, err := c.UserItem(context.Background(), "u1", "42")
		require.NoError(t, err)
		assert.Equal(t, "Foo", item.Name)
		assert.Equal(t, "100", item.ProviderIDs["Tmdb"])
		assert.Equal(t, "tt1", item.ProviderIDs["IMDB"])
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, err := New(srv.URL, "")
		require.NoError(t, err)

		_, err = c.UserItem(context.Background(), "u1", "42")
		assert.Error(t, err)
	})
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("://not-a-url", "")
	assert.Error(t, err)
}
